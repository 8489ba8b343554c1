package generator

import (
	"os"
	"strings"
)

// EnvCredential は呼び出し時に環境変数から認証情報を読み出します。
type EnvCredential string

// APIKey は環境変数の現在値を返します。
func (e EnvCredential) APIKey() string {
	return strings.TrimSpace(os.Getenv(string(e)))
}

// StaticCredential は固定の認証情報です。
type StaticCredential string

func (s StaticCredential) APIKey() string {
	return strings.TrimSpace(string(s))
}

// CredentialFunc は関数を CredentialSource として扱うためのアダプターです。
type CredentialFunc func() string

func (f CredentialFunc) APIKey() string {
	return strings.TrimSpace(f())
}

// credentialName は ConfigurationError に載せる設定名を返します。
func credentialName(src CredentialSource) string {
	if env, ok := src.(EnvCredential); ok {
		return string(env)
	}
	return "api key"
}
