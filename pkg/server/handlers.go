package server

import (
	"github.com/gin-gonic/gin"

	"github.com/merchantry/merchantry/pkg/apperror"
	"github.com/merchantry/merchantry/pkg/auth"
	"github.com/merchantry/merchantry/pkg/catalog"
	"github.com/merchantry/merchantry/pkg/repository"
)

// listArgs splits the query string into the pagination values and the
// remaining filter parameters. Only the first value of each key is used.
func listArgs(c *gin.Context) (values map[string]interface{}, query map[string]string) {
	values = map[string]interface{}{}
	query = map[string]string{}
	for key, vals := range c.Request.URL.Query() {
		if len(vals) == 0 {
			continue
		}
		switch key {
		case "page", "limit":
			values[key] = vals[0]
		default:
			query[key] = vals[0]
		}
	}
	return values, query
}

func bindBody(c *gin.Context) (map[string]interface{}, bool) {
	payload := map[string]interface{}{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		abortWithError(c, apperror.BadRequest("invalid request body"))
		return nil, false
	}
	return payload, true
}

func respond(c *gin.Context, res *repository.Result) {
	c.JSON(res.Status, res)
}

func respondList(c *gin.Context, res *repository.ListResult) {
	c.JSON(res.Status, res)
}

// handle adapts a service call returning a single Result into a gin handler
// body.
func handle(c *gin.Context, res *repository.Result, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, res)
}

func handleList(c *gin.Context, res *repository.ListResult, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondList(c, res)
}

func (s *Server) registerProductRoutes() {
	products := s.engine.Group("/products")

	products.GET("", func(c *gin.Context) {
		values, query := listArgs(c)
		res, err := s.deps.Products.FindAll(c.Request.Context(), auth.GetIdentity(c.Request.Context()), values, query)
		handleList(c, res, err)
	})
	products.GET("/:id", func(c *gin.Context) {
		res, err := s.deps.Products.FindOne(c.Request.Context(), auth.GetIdentity(c.Request.Context()), c.Param("id"))
		handle(c, res, err)
	})

	sellers := products.Group("", s.authRequired(), requireRoles(auth.RoleAdmin, auth.RoleVendor))
	sellers.POST("", func(c *gin.Context) {
		payload, ok := bindBody(c)
		if !ok {
			return
		}
		res, err := s.deps.Products.Create(c.Request.Context(), auth.GetIdentity(c.Request.Context()), payload)
		handle(c, res, err)
	})
	sellers.PATCH("/:id", func(c *gin.Context) {
		payload, ok := bindBody(c)
		if !ok {
			return
		}
		res, err := s.deps.Products.Update(c.Request.Context(), auth.GetIdentity(c.Request.Context()), c.Param("id"), payload)
		handle(c, res, err)
	})
	sellers.DELETE("/:id", func(c *gin.Context) {
		res, err := s.deps.Products.Archive(c.Request.Context(), auth.GetIdentity(c.Request.Context()), c.Param("id"))
		handle(c, res, err)
	})
	sellers.POST("/:id/restore", func(c *gin.Context) {
		res, err := s.deps.Products.Restore(c.Request.Context(), auth.GetIdentity(c.Request.Context()), c.Param("id"))
		handle(c, res, err)
	})
	sellers.DELETE("/:id/archive", func(c *gin.Context) {
		res, err := s.deps.Products.Delete(c.Request.Context(), auth.GetIdentity(c.Request.Context()), c.Param("id"))
		handle(c, res, err)
	})

	admins := products.Group("", s.authRequired(), requireRoles(auth.RoleAdmin))
	admins.GET("/archives", func(c *gin.Context) {
		res, err := s.deps.Products.FindArchive(c.Request.Context())
		handle(c, res, err)
	})
	admins.GET("/all", func(c *gin.Context) {
		res, err := s.deps.Products.BypassFindAll(c.Request.Context())
		handle(c, res, err)
	})
	admins.POST("/import", s.handleProductImport)
}

func (s *Server) handleProductImport(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		abortWithError(c, apperror.BadRequest("import file is required"))
		return
	}
	defer file.Close()

	mode := c.PostForm("mode")
	if mode == "" {
		mode = catalog.ImportOverwrite
	}

	res, err := s.deps.Products.Import(c.Request.Context(), file, mode)
	handle(c, res, err)
}

func (s *Server) registerOrderRoutes() {
	ordersGroup := s.engine.Group("/orders", s.authRequired())

	ordersGroup.POST("", func(c *gin.Context) {
		payload, ok := bindBody(c)
		if !ok {
			return
		}
		res, err := s.deps.Orders.Create(c.Request.Context(), payload)
		handle(c, res, err)
	})
	ordersGroup.GET("/:id", func(c *gin.Context) {
		res, err := s.deps.Orders.FindOne(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	ordersGroup.GET("/invoice/:invoice", func(c *gin.Context) {
		res, err := s.deps.Orders.FindByInvoice(c.Request.Context(), c.Param("invoice"))
		handle(c, res, err)
	})

	admins := ordersGroup.Group("", requireRoles(auth.RoleAdmin))
	admins.GET("", func(c *gin.Context) {
		values, query := listArgs(c)
		res, err := s.deps.Orders.FindAll(c.Request.Context(), values, query)
		handleList(c, res, err)
	})
	admins.GET("/archives", func(c *gin.Context) {
		res, err := s.deps.Orders.FindArchive(c.Request.Context())
		handle(c, res, err)
	})
	admins.PATCH("/:id/status", func(c *gin.Context) {
		payload, ok := bindBody(c)
		if !ok {
			return
		}
		res, err := s.deps.Orders.UpdateStatus(c.Request.Context(), c.Param("id"), payload)
		handle(c, res, err)
	})
	admins.DELETE("/:id", func(c *gin.Context) {
		res, err := s.deps.Orders.Archive(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	admins.POST("/:id/restore", func(c *gin.Context) {
		res, err := s.deps.Orders.Restore(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	admins.DELETE("/:id/archive", func(c *gin.Context) {
		res, err := s.deps.Orders.Delete(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
}

func (s *Server) registerDemoRoutes() {
	demos := s.engine.Group("/demos")

	demos.GET("", func(c *gin.Context) {
		values, query := listArgs(c)
		res, err := s.deps.Demos.FindAll(c.Request.Context(), values, query)
		handleList(c, res, err)
	})
	demos.GET("/:id", func(c *gin.Context) {
		res, err := s.deps.Demos.FindOne(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})

	admins := demos.Group("", s.authRequired(), requireRoles(auth.RoleAdmin))
	admins.POST("", func(c *gin.Context) {
		payload, ok := bindBody(c)
		if !ok {
			return
		}
		res, err := s.deps.Demos.Create(c.Request.Context(), payload)
		handle(c, res, err)
	})
	admins.PATCH("/:id", func(c *gin.Context) {
		payload, ok := bindBody(c)
		if !ok {
			return
		}
		res, err := s.deps.Demos.Update(c.Request.Context(), c.Param("id"), payload)
		handle(c, res, err)
	})
	admins.DELETE("/:id", func(c *gin.Context) {
		res, err := s.deps.Demos.Archive(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	admins.POST("/:id/restore", func(c *gin.Context) {
		res, err := s.deps.Demos.Restore(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	admins.DELETE("/:id/archive", func(c *gin.Context) {
		res, err := s.deps.Demos.Delete(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	admins.GET("/archives", func(c *gin.Context) {
		res, err := s.deps.Demos.FindArchive(c.Request.Context())
		handle(c, res, err)
	})
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")

	authGroup.POST("/signup", func(c *gin.Context) {
		payload, ok := bindBody(c)
		if !ok {
			return
		}
		res, err := s.deps.Accounts.SignUp(c.Request.Context(), payload)
		handle(c, res, err)
	})
	authGroup.POST("/signin", func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, apperror.BadRequest("invalid request body"))
			return
		}
		res, err := s.deps.Accounts.SignIn(c.Request.Context(), body.Email, body.Password)
		handle(c, res, err)
	})
	authGroup.POST("/refresh", func(c *gin.Context) {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, apperror.BadRequest("invalid request body"))
			return
		}
		res, err := s.deps.Accounts.Refresh(c.Request.Context(), body.RefreshToken)
		handle(c, res, err)
	})
	authGroup.POST("/signout", func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, apperror.Unauthorized("authorization token is required"))
			return
		}
		res, err := s.deps.Accounts.SignOut(c.Request.Context(), token)
		handle(c, res, err)
	})
	authGroup.POST("/verify-email/send", func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, apperror.BadRequest("invalid request body"))
			return
		}
		res, err := s.deps.Accounts.SendVerificationEmail(c.Request.Context(), body.Email)
		handle(c, res, err)
	})
	authGroup.GET("/verify-email", func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			abortWithError(c, apperror.BadRequest("verification token is required"))
			return
		}
		res, err := s.deps.Accounts.VerifyEmail(c.Request.Context(), token)
		handle(c, res, err)
	})
	authGroup.POST("/forget-password", func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, apperror.BadRequest("invalid request body"))
			return
		}
		res, err := s.deps.Accounts.ForgetPassword(c.Request.Context(), body.Email)
		handle(c, res, err)
	})
	authGroup.POST("/reset-password", func(c *gin.Context) {
		var body struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, apperror.BadRequest("invalid request body"))
			return
		}
		res, err := s.deps.Accounts.ResetPassword(c.Request.Context(), body.Token, body.Password)
		handle(c, res, err)
	})
	authGroup.POST("/change-password", s.authRequired(), func(c *gin.Context) {
		var body struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, apperror.BadRequest("invalid request body"))
			return
		}
		res, err := s.deps.Accounts.ChangePassword(c.Request.Context(), auth.GetIdentity(c.Request.Context()), body.CurrentPassword, body.NewPassword)
		handle(c, res, err)
	})
}

func (s *Server) registerUserRoutes() {
	users := s.engine.Group("/users", s.authRequired(), requireRoles(auth.RoleAdmin))

	users.GET("", func(c *gin.Context) {
		values, query := listArgs(c)
		res, err := s.deps.Accounts.FindAll(c.Request.Context(), values, query)
		handleList(c, res, err)
	})
	users.GET("/archives", func(c *gin.Context) {
		res, err := s.deps.Accounts.FindArchive(c.Request.Context())
		handle(c, res, err)
	})
	users.GET("/:id", func(c *gin.Context) {
		res, err := s.deps.Accounts.FindOne(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	users.DELETE("/:id", func(c *gin.Context) {
		res, err := s.deps.Accounts.Archive(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	users.POST("/:id/restore", func(c *gin.Context) {
		res, err := s.deps.Accounts.Restore(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
	users.DELETE("/:id/archive", func(c *gin.Context) {
		res, err := s.deps.Accounts.Delete(c.Request.Context(), c.Param("id"))
		handle(c, res, err)
	})
}
