package app

import (
	"github.com/gin-gonic/gin"
)

// metricsRealm is advertised in the WWW-Authenticate challenge.
const metricsRealm = "metrics"

// metricsAuth guards /metrics with HTTP Basic Auth. An empty password leaves
// the endpoint open.
func metricsAuth(username, password string) gin.HandlerFunc {
	if password == "" {
		return func(c *gin.Context) { c.Next() }
	}
	if username == "" {
		username = "prometheus"
	}
	return gin.BasicAuthForRealm(gin.Accounts{username: password}, metricsRealm)
}
