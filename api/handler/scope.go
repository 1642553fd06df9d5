// Package handler holds what the resource handlers share.
package handler

import (
	"github.com/anoixa/memlane/api/middleware"
	"github.com/anoixa/memlane/internal/app"
	"github.com/gin-gonic/gin"
)

// RepositoryFactory hands out repositories bound to one caller credential
type RepositoryFactory interface {
	Repositories(credential string) *app.Repositories
}

// Scope repositories for the credential of the current request
func Scope(c *gin.Context, f RepositoryFactory) *app.Repositories {
	return f.Repositories(middleware.CredentialFrom(c))
}
