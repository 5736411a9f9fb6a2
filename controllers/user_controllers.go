package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mesa-digital/restaurant-app/middlewares"
	"github.com/mesa-digital/restaurant-app/models"
	"github.com/mesa-digital/restaurant-app/services"
	"github.com/mesa-digital/restaurant-app/utils"
)

type UserController struct {
	Auth      *services.AuthService
	Users     *services.UserService
	Sessions  *middlewares.Sessions
	AccessLog *services.AccessLogger
}

func NewUserController(auth *services.AuthService, users *services.UserService, sessions *middlewares.Sessions, accessLog *services.AccessLogger) *UserController {
	return &UserController{Auth: auth, Users: users, Sessions: sessions, AccessLog: accessLog}
}

type loginResponse struct {
	Token    string                `json:"token"`
	Redirect string                `json:"redirect"`
	User     models.SessionContext `json:"user"`
}

// redirectFor is the landing page of a role.
func redirectFor(role models.Role) string {
	if role == models.RoleSuperAdmin {
		return "/super-admin"
	}
	return "/dashboard"
}

// Login accepts a JSON body or a form post.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" form:"email" binding:"required"`
		Password string `json:"password" form:"password" binding:"required"`
	}
	if err := c.ShouldBind(&input); err != nil {
		utils.RespondError(c, utils.InvalidField("body", "email and password are required"))
		return
	}

	sc, err := uc.Auth.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := uc.Sessions.Start(c, sc)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	uc.AccessLog.Record(sc, services.ActionLogin, c.ClientIP())

	utils.RespondJSON(c, http.StatusOK, "Login successful", loginResponse{
		Token:    token,
		Redirect: redirectFor(sc.Role),
		User:     sc,
	})
}

func (uc *UserController) Logout(c *gin.Context) {
	if sc, _, ok := uc.Sessions.Lookup(c); ok {
		uc.AccessLog.Record(sc, services.ActionLogout, c.ClientIP())
	}
	uc.Sessions.End(c)

	if c.Request.Method == http.MethodGet && c.GetHeader("Accept") == "text/html" {
		c.Redirect(http.StatusFound, "/")
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out", gin.H{"redirect": "/"})
}

func (uc *UserController) Me(c *gin.Context) {
	sc, ok := session(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current session", sc)
}

func (uc *UserController) ListUsers(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	users, err := uc.Users.ListUsers(c.Request.Context(), tenantID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of users", users)
}

func (uc *UserController) CreateUser(c *gin.Context) {
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	var input services.CreateUserInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := uc.Users.CreateUser(c.Request.Context(), tenantID, input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.InfoLogger.WithField("user_id", user.ID).Infof("User created: %s (role=%s)", user.Email, user.Role)
	utils.RespondJSON(c, http.StatusCreated, "User created", user)
}

func (uc *UserController) DeactivateUser(c *gin.Context) {
	sc, ok := session(c)
	if !ok {
		return
	}
	tenantID, ok := tenantScope(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := uc.Users.DeactivateUser(c.Request.Context(), tenantID, id, sc.UserID); err != nil {
		utils.RespondError(c, err)
		return
	}
	if n := uc.Sessions.Store.DeleteUser(id); n > 0 {
		utils.InfoLogger.WithField("user_id", id).Infof("Ended %d sessions of deactivated user", n)
	}
	utils.RespondJSON(c, http.StatusOK, "User deactivated", gin.H{"id": id})
}
