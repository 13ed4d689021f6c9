package utils

import (
	"os"
	"strings"
)

func GetSecret(conf string, file string) string {
	if conf == "" && file == "" {
		return ""
	}

	if conf != "" {
		return conf
	}

	contents, err := os.ReadFile(file)
	if err != nil {
		return ""
	}

	return ParseSecretFile(string(contents))
}

func ParseSecretFile(contents string) string {
	lines := strings.Split(contents, "\n")

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return strings.TrimSpace(line)
	}

	return ""
}

func SplitScopes(scopes string) []string {
	result := []string{}
	for _, part := range strings.Split(scopes, " ") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
