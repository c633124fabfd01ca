package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/learnhub-backend/apperr"
)

// Envelope JSON chung cho mọi response: {success, message?, data?, error?}
func respondOK(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func respondError(c *gin.Context, err error) {
	ae := apperr.From(err)
	msg := ae.Msg
	if msg == "" {
		msg = "Đã có lỗi xảy ra"
	}
	if ae.Code == apperr.CodePersistence {
		// không lộ chi tiết lỗi DB ra ngoài
		msg = "Đã có lỗi xảy ra, vui lòng thử lại sau"
	}
	c.JSON(ae.Status, gin.H{
		"success": false,
		"error":   ae.Code,
		"message": msg,
	})
}
