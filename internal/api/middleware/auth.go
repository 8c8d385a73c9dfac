package middleware

import (
	"errors"
	"net/http"
	"strings"

	"import-service/internal/api/responses"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// OwnerKey é a chave do dono dos registros no contexto do gin.
const OwnerKey = "owner"

// LocalOwner é o dono usado quando a autenticação está desligada.
const LocalOwner = "local"

// Owner devolve o dono da requisição atual.
func Owner(c *gin.Context) string {
	if v := c.GetString(OwnerKey); v != "" {
		return v
	}
	return LocalOwner
}

// ParseToken valida um token HS256 emitido pelo serviço de autenticação e
// devolve o claim "username".
func ParseToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("método de assinatura inesperado")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("token inválido")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", errors.New("token sem usuário")
	}
	return username, nil
}

// Auth exige "Authorization: Bearer <token>". Com secret vazio só marca o
// dono local.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if len(key) == 0 {
			c.Set(OwnerKey, LocalOwner)
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			responses.Abort(c, http.StatusUnauthorized, "Token de acesso ausente")
			return
		}
		username, err := ParseToken(strings.TrimSpace(tokenString), key)
		if err != nil {
			responses.Abort(c, http.StatusUnauthorized, "Token de acesso inválido")
			return
		}
		c.Set(OwnerKey, username)
		c.Next()
	}
}
