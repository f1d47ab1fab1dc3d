package models

import "time"

type TenantStub struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Issuer       string `json:"issuer"`
	Subdomain    string `json:"subdomain,omitempty"`
	IsTest       bool   `json:"is_test"`
	HideBranding bool   `json:"hide_branding"`
}

type ApplicationInfo struct {
	Name                  string  `json:"name"`
	Description           *string `json:"description,omitempty"`
	BundleID              string  `json:"bundle_id"`
	DefaultFeedbackFormID *string `json:"default_feedback_form_id,omitempty"`
}

type AppReleaseConfiguration struct {
	Title            string `json:"title"`
	HasOtherReleases bool   `json:"has_other_releases"`
}

type NewInstalledVersionInfo struct {
	Configuration AppReleaseConfiguration `json:"configuration"`
	Release       AppRelease              `json:"release"`
}

type AppInfo struct {
	VersionToken            *string                  `json:"version_token,omitempty"`
	NewInstalledVersionInfo *NewInstalledVersionInfo `json:"new_installed_version_info,omitempty"`
	Application             ApplicationInfo          `json:"application"`
	Tenant                  TenantStub               `json:"tenant"`
}

type User struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Email       *string    `json:"email,omitempty"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type UserInfo struct {
	User User `json:"user"`
}

// Credential is the access token persisted by the data manager.
type Credential struct {
	AccessToken string    `json:"access_token"`
	ObtainedAt  time.Time `json:"obtained_at"`
}
