package middlewares

import "github.com/gin-gonic/gin"

// abortJSON stops the chain with the same error body the handlers write.
func abortJSON(ctx *gin.Context, status int, code, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"error":     message,
		"code":      code,
		"requestId": ctx.GetString(CtxRequestID),
	})
}
