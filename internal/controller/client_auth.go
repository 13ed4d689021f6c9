package controller

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/service"

	"github.com/gin-gonic/gin"
)

var errNoClientCredentials = errors.New("client credentials not found")

// getClientCredentials supports client_secret_basic and client_secret_post.
// Credentials are never accepted via query parameters since those end up in
// access logs and referrer headers.
func getClientCredentials(c *gin.Context) (string, string, error) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Basic ") {
		encoded := strings.TrimPrefix(authHeader, "Basic ")
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err == nil {
			parts := strings.SplitN(string(decoded), ":", 2)
			if len(parts) == 2 {
				return parts[0], parts[1], nil
			}
		}
	}

	clientID := c.PostForm("client_id")
	clientSecret := c.PostForm("client_secret")
	if clientID != "" && clientSecret != "" {
		return clientID, clientSecret, nil
	}

	return "", "", errNoClientCredentials
}

func authenticateClient(c *gin.Context, clients *service.ClientService) (*model.Client, *service.OAuthError) {
	clientID, clientSecret, err := getClientCredentials(c)
	if err != nil {
		return nil, service.NewOAuthError(service.ErrorInvalidClient, "Client credentials not found")
	}

	client, err := clients.GetClient(clientID)
	if err != nil {
		return nil, service.NewOAuthError(service.ErrorInvalidClient, "Client not found")
	}

	if !clients.VerifyClientSecret(client, clientSecret) {
		return nil, service.NewOAuthError(service.ErrorInvalidClient, "Invalid client secret")
	}

	return client, nil
}
