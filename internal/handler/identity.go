package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// 会话里只存一个展示名，等价于原客户端的 localStorage 身份
const identitySessionKey = "display_name"

// SetIdentity 记住客户端选择的展示名
func (a *API) SetIdentity(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if !bindJSON(c, &payload, "invalid request payload") {
		return
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		respondError(c, http.StatusBadRequest, "display name is required")
		return
	}

	session := sessions.Default(c)
	session.Set(identitySessionKey, name)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save identity")
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name})
}

// GetIdentity 返回会话中记住的展示名
func (a *API) GetIdentity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": sessionName(c)})
}

// requesterName 解析请求者身份：显式字段优先，其次查询参数，最后回落会话
func requesterName(c *gin.Context, explicit string) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	if name := strings.TrimSpace(c.Query("requester")); name != "" {
		return name
	}
	return sessionName(c)
}

func sessionName(c *gin.Context) string {
	session := sessions.Default(c)
	if value, ok := session.Get(identitySessionKey).(string); ok {
		return value
	}
	return ""
}
