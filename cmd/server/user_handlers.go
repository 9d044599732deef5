package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"openshelf/pkg/models"
)

func userView(user *models.User) gin.H {
	favorites, err := profiles.Favorites(user.UserUid)
	if err != nil {
		favorites = nil
	}
	return gin.H{
		"userUid":   user.UserUid,
		"name":      user.Name,
		"email":     user.Email,
		"favorites": favorites,
	}
}

func getUsers(c *gin.Context) {
	var users []models.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	items := make([]gin.H, len(users))
	for i := range users {
		items[i] = userView(&users[i])
	}
	c.JSON(http.StatusOK, items)
}

func getUser(c *gin.Context) {
	userUid := c.Param("userUid")
	var user models.User
	err := db.Where("user_uid = ?", userUid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, userView(&user))
}

func createUser(c *gin.Context) {
	var request struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	user := models.User{
		UserUid: uuid.New().String(),
		Name:    request.Name,
		Email:   request.Email,
	}
	if err := db.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, userView(&user))
}

func updateUser(c *gin.Context) {
	userUid := c.Param("userUid")
	var request struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	var user models.User
	err := db.Where("user_uid = ?", userUid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if request.Name != nil {
		user.Name = *request.Name
	}
	if request.Email != nil {
		user.Email = *request.Email
	}
	if err := db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	c.JSON(http.StatusOK, userView(&user))
}

func getUserSummary(c *gin.Context) {
	summary, err := profiles.Summary(c.Param("userUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func addFavorite(c *gin.Context) {
	if err := profiles.AddFavorite(c.Param("userUid"), c.Param("bookUid")); err != nil {
		writeError(c, err)
		return
	}
	favorites, err := profiles.Favorites(c.Param("userUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

func removeFavorite(c *gin.Context) {
	if err := profiles.RemoveFavorite(c.Param("userUid"), c.Param("bookUid")); err != nil {
		writeError(c, err)
		return
	}
	favorites, err := profiles.Favorites(c.Param("userUid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}
