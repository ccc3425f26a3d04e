package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/uptask/uptask-server/internal/api/authenticator"
	"github.com/uptask/uptask-server/internal/api/pipeline"
	"github.com/uptask/uptask-server/internal/api/ratelimit"
	"github.com/uptask/uptask-server/internal/api/response"
	"github.com/uptask/uptask-server/internal/perrors"
	"github.com/uptask/uptask-server/internal/services"
	auth2 "github.com/uptask/uptask-server/internal/services/auth"
)

type emailRequest struct {
	Email string `json:"email"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type updatePasswordRequest struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type checkPasswordRequest struct {
	Password string `json:"password"`
}

// Credential endpoints share one modest budget per client address.
var credentialLimit = ratelimit.Limit{Requests: 10, Window: time.Minute}

func RegisterAuthRoutes(r *router.Router, svc *services.Services, auth *authenticator.Authenticator, p *pipeline.Pipeline, limiter ratelimit.Storage) {
	r.POST("/api/auth/create-account", pipeline.Chain(
		rateLimited(limiter, credentialLimit),
		validateCreateAccount(),
		createAccount(svc),
	))

	r.POST("/api/auth/confirm-account", pipeline.Chain(
		validateToken(),
		confirmAccount(svc),
	))

	r.POST("/api/auth/login", pipeline.Chain(
		rateLimited(limiter, credentialLimit),
		validateLogin(),
		login(svc, auth),
	))

	r.POST("/api/auth/request-code", pipeline.Chain(
		rateLimited(limiter, credentialLimit),
		validateEmailBody(),
		requestCode(svc),
	))

	r.POST("/api/auth/forgot-password", pipeline.Chain(
		rateLimited(limiter, credentialLimit),
		validateEmailBody(),
		forgotPassword(svc),
	))

	r.POST("/api/auth/validate-token", pipeline.Chain(
		validateToken(),
		validateResetToken(svc),
	))

	r.POST("/api/auth/update-password/{token}", pipeline.Chain(
		validateNewPassword(),
		updatePasswordWithToken(svc),
	))

	r.GET("/api/auth/user", pipeline.Chain(
		p.Authenticate(),
		currentUser(),
	))

	r.PUT("/api/auth/profile", pipeline.Chain(
		p.Authenticate(),
		validateProfile(),
		updateProfile(svc),
	))

	r.POST("/api/auth/update-password", pipeline.Chain(
		p.Authenticate(),
		validateUpdatePassword(),
		updateCurrentPassword(svc),
	))

	r.POST("/api/auth/check-password", pipeline.Chain(
		p.Authenticate(),
		checkPassword(svc),
	))
}

func validateCreateAccount() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body auth2.CreateAccountRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if body.Name == "" {
			return invalid("Name cannot be empty")
		}
		if len(body.Password) < 8 {
			return invalid("The password requires minimum 8 characters")
		}
		if body.Password != body.PasswordConfirmation {
			return invalid("The passwords do not match")
		}
		body.Email = normalizeEmail(body.Email)
		if !validEmail(body.Email) {
			return invalid("Not valid email")
		}

		sc.Body = &body
		return nil
	}
}

func createAccount(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*auth2.CreateAccountRequest)

		if err := svc.Auth.CreateAccount(stdCtx, body); err != nil {
			if errors.Is(err, auth2.ErrUserExists) {
				return perrors.NewErrConflict("Duplicate registration", errors.New("This user already exists"))
			}
			return perrors.NewErrInternalServerError("Failed to create account", err)
		}

		response.Text(ctx, "Account created! Check your email to confirm your account")
		return nil
	}
}

func validateToken() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body tokenRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if body.Token == "" {
			return invalid("Token cannot be empty")
		}

		sc.Body = &body
		return nil
	}
}

func confirmAccount(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*tokenRequest)

		if err := svc.Auth.ConfirmAccount(stdCtx, body.Token); err != nil {
			if errors.Is(err, auth2.ErrInvalidToken) {
				return perrors.NewErrUnauthorized("Token rejected", errors.New("Invalid token"))
			}
			return perrors.NewErrInternalServerError("Failed to confirm account", err)
		}

		response.Text(ctx, "Account confirmed successfully")
		return nil
	}
}

func validateLogin() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body loginRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		body.Email = normalizeEmail(body.Email)
		if !validEmail(body.Email) {
			return invalid("Not valid email")
		}
		if body.Password == "" {
			return invalid("The password is required")
		}

		sc.Body = &body
		return nil
	}
}

func login(svc *services.Services, auth *authenticator.Authenticator) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*loginRequest)

		u, err := svc.Auth.Login(stdCtx, body.Email, body.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth2.ErrUserNotFound):
				return perrors.NewErrUnauthorized("Unknown email", errors.New("User not found"))
			case errors.Is(err, auth2.ErrNotConfirmed):
				return perrors.NewErrUnauthorized("Unconfirmed account", errors.New("The account has not been confirmed, we have sent a new confirmation email"))
			case errors.Is(err, auth2.ErrWrongPassword):
				return perrors.NewErrUnauthorized("Password mismatch", errors.New("Incorrect password"))
			default:
				return perrors.NewErrInternalServerError("Failed to login", err)
			}
		}

		token, err := auth.GenerateToken(u.ID)
		if err != nil {
			return perrors.NewErrInternalServerError("Failed to generate token", err)
		}

		response.Text(ctx, token)
		return nil
	}
}

func validateEmailBody() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body emailRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		body.Email = normalizeEmail(body.Email)
		if !validEmail(body.Email) {
			return invalid("Not valid email")
		}

		sc.Body = &body
		return nil
	}
}

func requestCode(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*emailRequest)

		if err := svc.Auth.RequestConfirmationCode(stdCtx, body.Email); err != nil {
			switch {
			case errors.Is(err, auth2.ErrUserNotFound):
				return perrors.NewErrNotFound("Unknown email", errors.New("This user is not registered"))
			case errors.Is(err, auth2.ErrConfirmed):
				return perrors.New(perrors.ErrCodeForbidden, "Already confirmed", errors.New("This user is already confirmed"))
			default:
				return perrors.NewErrInternalServerError("Failed to issue confirmation code", err)
			}
		}

		response.Text(ctx, "A new token has been sent, check your email")
		return nil
	}
}

func forgotPassword(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*emailRequest)

		if err := svc.Auth.ForgotPassword(stdCtx, body.Email); err != nil {
			if errors.Is(err, auth2.ErrUserNotFound) {
				return perrors.NewErrNotFound("Unknown email", errors.New("This user is not registered"))
			}
			return perrors.NewErrInternalServerError("Failed to issue reset token", err)
		}

		response.Text(ctx, "Check your email for further instructions")
		return nil
	}
}

func validateResetToken(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*tokenRequest)

		if err := svc.Auth.ValidateToken(stdCtx, body.Token); err != nil {
			if errors.Is(err, auth2.ErrInvalidToken) {
				return perrors.NewErrUnauthorized("Token rejected", errors.New("Invalid token"))
			}
			return perrors.NewErrInternalServerError("Failed to validate token", err)
		}

		response.Text(ctx, "Valid token, set your new password")
		return nil
	}
}

func validateNewPassword() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body passwordRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if len(body.Password) < 8 {
			return invalid("The password requires minimum 8 characters")
		}
		if body.Password != body.PasswordConfirmation {
			return invalid("The passwords do not match")
		}

		sc.Body = &body
		return nil
	}
}

func updatePasswordWithToken(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*passwordRequest)

		code, ok := ctx.UserValue("token").(string)
		if !ok || code == "" {
			return invalid("No valid token")
		}

		if err := svc.Auth.UpdatePasswordWithToken(stdCtx, code, body.Password); err != nil {
			if errors.Is(err, auth2.ErrInvalidToken) {
				return perrors.NewErrUnauthorized("Token rejected", errors.New("Invalid token"))
			}
			return perrors.NewErrInternalServerError("Failed to update password", err)
		}

		response.Text(ctx, "Password has been updated successfully")
		return nil
	}
}

func currentUser() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		response.JSON(ctx, stdCtx, sc.User)
		return nil
	}
}

func validateProfile() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body updateProfileRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if body.Name == "" {
			return invalid("Name cannot be empty")
		}
		body.Email = normalizeEmail(body.Email)
		if !validEmail(body.Email) {
			return invalid("Not valid email")
		}

		sc.Body = &body
		return nil
	}
}

func updateProfile(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*updateProfileRequest)

		if err := svc.Auth.UpdateProfile(stdCtx, sc.User.ID, body.Name, body.Email); err != nil {
			if errors.Is(err, auth2.ErrEmailTaken) {
				return perrors.NewErrConflict("Email in use", errors.New("That email is already registered"))
			}
			return perrors.NewErrInternalServerError("Failed to update profile", err)
		}

		response.Text(ctx, "Profile updated successfully")
		return nil
	}
}

func validateUpdatePassword() pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body updatePasswordRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}

		if body.CurrentPassword == "" {
			return invalid("Current password cannot be empty")
		}
		if len(body.Password) < 8 {
			return invalid("The password requires minimum 8 characters")
		}
		if body.Password != body.PasswordConfirmation {
			return invalid("The passwords do not match")
		}

		sc.Body = &body
		return nil
	}
}

func updateCurrentPassword(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		body := sc.Body.(*updatePasswordRequest)

		if err := svc.Auth.UpdateCurrentPassword(stdCtx, sc.User.ID, body.CurrentPassword, body.Password); err != nil {
			if errors.Is(err, auth2.ErrWrongPassword) {
				return perrors.NewErrUnauthorized("Password mismatch", errors.New("Current password is incorrect"))
			}
			return perrors.NewErrInternalServerError("Failed to update password", err)
		}

		response.Text(ctx, "Password has been updated successfully")
		return nil
	}
}

func checkPassword(svc *services.Services) pipeline.Stage {
	return func(ctx *fasthttp.RequestCtx, stdCtx context.Context, sc *pipeline.Scope) error {
		var body checkPasswordRequest
		if err := parseBody(ctx, &body); err != nil {
			return perrors.NewErrInvalidRequest("Invalid request body", err)
		}
		if body.Password == "" {
			return invalid("Password cannot be empty")
		}

		if err := svc.Auth.CheckPassword(stdCtx, sc.User.ID, body.Password); err != nil {
			if errors.Is(err, auth2.ErrWrongPassword) {
				return perrors.NewErrUnauthorized("Password mismatch", errors.New("Password is incorrect"))
			}
			return perrors.NewErrInternalServerError("Failed to check password", err)
		}

		response.Text(ctx, "Correct password")
		return nil
	}
}
