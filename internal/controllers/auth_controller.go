package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/session"
)

var errLicenseRequired = errors.New("license_number is required for driver role")

type signupInput struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	DriverPhone   string `json:"driver_phone"`
	LicenseNumber string `json:"license_number"`
}

func SignupUser(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := validateAndNormalizeRole(input.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Role = role

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	var user models.User
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = createUserRecord(tx, input, hashedPassword); err != nil {
			return err
		}
		return createDriverRecord(tx, &user, input)
	})
	if err != nil {
		switch {
		case isDuplicate(err):
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		case errors.Is(err, errLicenseRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logrus.WithError(err).Error("Signup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		}
		return
	}

	token, err := middleware.GenerateToken(user.ID, driverID(user), user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  prepareUserResponse(user),
	})
}

func LoginUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", body.Email).Preload("Driver").First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or invalid credentials"})
		} else {
			logrus.WithError(err).Error("Login lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(user.ID, driverID(user), user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  prepareUserResponse(user),
	})
}

// Logout throws away everything cached for the caller's session.
func Logout(sessions *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, _ := middleware.CurrentAuth(c)
		sessions.Discard(a.SessionID)
		logrus.WithFields(logrus.Fields{"user_id": a.UserID, "sid": a.SessionID}).Info("User logged out")
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

func Me(c *gin.Context) {
	a, _ := middleware.CurrentAuth(c)
	var user models.User
	if err := config.DB.Preload("Driver").First(&user, a.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": prepareUserResponse(user)})
}

func validateAndNormalizeRole(roleInput string) (string, error) {
	role := strings.ToLower(strings.TrimSpace(roleInput))
	if role == "" {
		role = models.RoleDriver
	}
	switch role {
	case models.RoleDriver, models.RoleManager, models.RoleAdmin:
		return role, nil
	default:
		return "", errors.New("invalid role")
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func createUserRecord(tx *gorm.DB, input signupInput, hashedPassword string) (models.User, error) {
	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
		Phone:    input.Phone,
		Role:     input.Role,
	}
	if err := tx.Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func createDriverRecord(tx *gorm.DB, user *models.User, input signupInput) error {
	if user.Role != models.RoleDriver {
		return nil
	}
	if input.LicenseNumber == "" {
		return errLicenseRequired
	}
	driver := models.Driver{
		UserID:        user.ID,
		Name:          input.Name,
		Phone:         input.DriverPhone,
		LicenseNumber: input.LicenseNumber,
	}
	if err := tx.Create(&driver).Error; err != nil {
		return err
	}
	user.Driver = &driver
	return nil
}

func driverID(user models.User) uint {
	if user.Driver == nil {
		return 0
	}
	return user.Driver.ID
}

func prepareUserResponse(user models.User) gin.H {
	responseUser := gin.H{
		"ID":        user.ID,
		"CreatedAt": user.CreatedAt,
		"UpdatedAt": user.UpdatedAt,
		"name":      user.Name,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
	}
	if user.Driver != nil {
		responseUser["driver"] = gin.H{
			"ID":             user.Driver.ID,
			"name":           user.Driver.Name,
			"phone":          user.Driver.Phone,
			"license_number": user.Driver.LicenseNumber,
			"vehicle_id":     user.Driver.VehicleID,
		}
	}
	return responseUser
}
