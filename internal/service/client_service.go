package service

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/utils"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrClientNotFound = errors.New("client not found")

type ClientServiceConfig struct {
	Database *gorm.DB
}

type ClientService struct {
	config ClientServiceConfig
}

func NewClientService(config ClientServiceConfig) *ClientService {
	return &ClientService{
		config: config,
	}
}

func (cs *ClientService) GetClient(clientID string) (*model.Client, error) {
	var client model.Client
	err := cs.config.Database.Where("client_id = ?", clientID).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	return &client, nil
}

func (cs *ClientService) VerifyClientSecret(client *model.Client, secret string) bool {
	return subtle.ConstantTimeCompare([]byte(client.ClientSecret), []byte(secret)) == 1
}

func (cs *ClientService) ValidateGrantType(client *model.Client, grantType string) bool {
	var grantTypes []string
	if err := json.Unmarshal([]byte(client.GrantTypes), &grantTypes); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal grant types")
		return false
	}
	return utils.Contains(grantTypes, grantType)
}

func (cs *ClientService) ValidateDeliveryMode(client *model.Client, mode string) bool {
	var modes []string
	if err := json.Unmarshal([]byte(client.TokenDeliveryModes), &modes); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal token delivery modes")
		return false
	}
	return utils.Contains(modes, mode)
}

// ValidateScope narrows the requested scopes down to the client's allowed set.
func (cs *ClientService) ValidateScope(client *model.Client, requestedScopes string) ([]string, error) {
	var allowedScopes []string
	if err := json.Unmarshal([]byte(client.Scopes), &allowedScopes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scopes: %w", err)
	}

	requestedScopesList := utils.SplitScopes(requestedScopes)

	validScopes := []string{}
	for _, scope := range requestedScopesList {
		if utils.Contains(allowedScopes, scope) {
			validScopes = append(validScopes, scope)
		}
	}

	return validScopes, nil
}

// SyncClientsFromConfig provisions the registered clients declared in config
// into the database, creating or updating as needed.
func (cs *ClientService) SyncClientsFromConfig(clients map[string]config.ClientConfig) error {
	for clientID, clientConfig := range clients {
		clientSecret := utils.GetSecret(clientConfig.ClientSecret, clientConfig.ClientSecretFile)

		if clientSecret == "" {
			log.Warn().Str("client_id", clientID).Msg("Client secret is empty, skipping client")
			continue
		}

		clientName := clientConfig.Name
		if clientName == "" {
			clientName = clientID
		}

		grantTypes := clientConfig.GrantTypes
		if len(grantTypes) == 0 {
			grantTypes = []string{config.GrantTypeCIBA, config.GrantTypeDeviceCode}
		}

		scopes := clientConfig.Scopes
		if len(scopes) == 0 {
			scopes = []string{"openid", "profile", "email"}
		}

		deliveryModes := clientConfig.TokenDeliveryModes
		if len(deliveryModes) == 0 {
			deliveryModes = []string{model.ModePoll}
		}

		grantTypesJSON, err := json.Marshal(grantTypes)
		if err != nil {
			log.Error().Err(err).Str("client_id", clientID).Msg("Failed to marshal grant types")
			continue
		}

		scopesJSON, err := json.Marshal(scopes)
		if err != nil {
			log.Error().Err(err).Str("client_id", clientID).Msg("Failed to marshal scopes")
			continue
		}

		deliveryModesJSON, err := json.Marshal(deliveryModes)
		if err != nil {
			log.Error().Err(err).Str("client_id", clientID).Msg("Failed to marshal token delivery modes")
			continue
		}

		now := time.Now().Unix()

		var existingClient model.Client
		err = cs.config.Database.Where("client_id = ?", clientID).First(&existingClient).Error

		client := model.Client{
			ClientID:             clientID,
			ClientSecret:         clientSecret,
			ClientName:           clientName,
			GrantTypes:           string(grantTypesJSON),
			Scopes:               string(scopesJSON),
			TokenDeliveryModes:   string(deliveryModesJSON),
			NotificationEndpoint: clientConfig.NotificationEndpoint,
			UpdatedAt:            now,
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			client.CreatedAt = now
			if err := cs.config.Database.Create(&client).Error; err != nil {
				log.Error().Err(err).Str("client_id", clientID).Msg("Failed to create client")
				continue
			}
			log.Info().Str("client_id", clientID).Str("client_name", clientName).Msg("Created client from config")
		} else if err == nil {
			client.CreatedAt = existingClient.CreatedAt
			if err := cs.config.Database.Where("client_id = ?", clientID).Updates(&client).Error; err != nil {
				log.Error().Err(err).Str("client_id", clientID).Msg("Failed to update client")
				continue
			}
			log.Info().Str("client_id", clientID).Str("client_name", clientName).Msg("Updated client from config")
		} else {
			log.Error().Err(err).Str("client_id", clientID).Msg("Failed to check existing client")
			continue
		}
	}

	return nil
}
