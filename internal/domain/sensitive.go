package domain

import "strings"

// SensitivePropertyKeys never reach the generated properties file.
var SensitivePropertyKeys = []string{
	"sonar.login",
	"sonar.password",
	"sonar.token",
	"sonar.clientcert.password",
	"sonar.scanner.truststorePassword",
	"javax.net.ssl.trustStorePassword",
}

// IsSensitiveProperty reports whether key names a credential.
func IsSensitiveProperty(key string) bool {
	for _, k := range SensitivePropertyKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// ContainsSensitiveData reports whether a key/value pair mentions any
// credential property, either as the key or embedded in the value.
func ContainsSensitiveData(key, value string) bool {
	for _, k := range SensitivePropertyKeys {
		if strings.Contains(key, k) || strings.Contains(value, k) {
			return true
		}
	}
	return false
}
