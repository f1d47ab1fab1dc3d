package endpoints

import "net/http"

var (
	// Assets
	PostCreateAsset = Endpoint{Name: "postCreateAsset", Method: http.MethodPost, Slug: "tenants/:tenantId/assets/images"}

	// Auth
	PostLogin   = Endpoint{Name: "postLogin", Method: http.MethodPost, Slug: "tenants/:tenantId/auth/login", Tracking: true}
	PostLogout  = Endpoint{Name: "postLogout", Method: http.MethodPost, Slug: "tenants/:tenantId/auth/logout", Tracking: true}
	GetUserInfo = Endpoint{Name: "getUserInfo", Method: http.MethodGet, Slug: "tenants/:tenantId/auth/user-info", Tracking: true}

	// Feedback
	GetCards                = Endpoint{Name: "getCards", Method: http.MethodGet, Slug: "cards", GuestAllowed: true}
	PostBulkAnswerQuestions = Endpoint{Name: "postBulkAnswerQuestions", Method: http.MethodPost, Slug: "bulk/questions/answer"}
	GetFeedbackForm         = Endpoint{Name: "getFeedbackForm", Method: http.MethodGet, Slug: "feedback/forms/:formId", GuestAllowed: true}
	PostSubmitFeedbackForm  = Endpoint{Name: "postSubmitFeedbackForm", Method: http.MethodPost, Slug: "feedback/forms/:formId/submit", GuestAllowed: true}

	// Sessions and push
	PostBulkSubmitSessions = Endpoint{Name: "postBulkSubmitSessions", Method: http.MethodPost, Slug: "tenants/:tenantId/sessions", Tracking: true}
	PostPushTokens         = Endpoint{Name: "postPushTokens", Method: http.MethodPost, Slug: "tenants/:tenantId/push-tokens", Tracking: true, GuestAllowed: true}

	// Roadmap
	GetRoadmap          = Endpoint{Name: "getRoadmap", Method: http.MethodGet, Slug: "tenants/:tenantId/applications/:applicationId/roadmap", GuestAllowed: true}
	GetPaginateTickets  = Endpoint{Name: "getPaginateTickets", Method: http.MethodGet, Slug: "tenants/:tenantId/applications/:applicationId/tickets", GuestAllowed: true}
	PostVoteForTicket   = Endpoint{Name: "postVoteForTicket", Method: http.MethodPost, Slug: "tenants/:tenantId/tickets/:ticketId/vote"}
	DeleteVoteForTicket = Endpoint{Name: "deleteVoteForTicket", Method: http.MethodDelete, Slug: "tenants/:tenantId/tickets/:ticketId/vote"}

	// Releases
	GetRelease          = Endpoint{Name: "getRelease", Method: http.MethodGet, Slug: "tenants/:tenantId/applications/:applicationId/releases/:releaseId", GuestAllowed: true}
	GetPaginateReleases = Endpoint{Name: "getPaginateReleases", Method: http.MethodGet, Slug: "tenants/:tenantId/applications/:applicationId/releases", GuestAllowed: true}
	GetAppInfo          = Endpoint{Name: "getAppInfo", Method: http.MethodGet, Slug: "tenants/:tenantId/applications/:applicationId/app-info", Tracking: true, GuestAllowed: true}

	// Users
	UpdateUserInfo   = Endpoint{Name: "updateUserInfo", Method: http.MethodPut, Slug: "tenants/:tenantId/users/:userId"}
	PostUpdateAvatar = Endpoint{Name: "postUpdateAvatar", Method: http.MethodPost, Slug: "tenants/:tenantId/users/avatar"}
	DeleteAvatar     = Endpoint{Name: "deleteAvatar", Method: http.MethodDelete, Slug: "tenants/:tenantId/users/:userId/avatar"}
	DeleteUser       = Endpoint{Name: "deleteUser", Method: http.MethodDelete, Slug: "tenants/:tenantId/users/:userId"}

	// User properties
	GetUserProperties           = Endpoint{Name: "getUserProperties", Method: http.MethodGet, Slug: "tenants/:tenantId/users/:userId/properties"}
	PutReplaceUserProperties    = Endpoint{Name: "putReplaceUserProperties", Method: http.MethodPut, Slug: "tenants/:tenantId/users/:userId/properties"}
	PatchUpdateUserProperties   = Endpoint{Name: "patchUpdateUserProperties", Method: http.MethodPatch, Slug: "tenants/:tenantId/users/:userId/properties"}
	DeleteAllUserProperties     = Endpoint{Name: "deleteAllUserProperties", Method: http.MethodDelete, Slug: "tenants/:tenantId/users/:userId/properties"}
	PutUpdateSingleUserProperty = Endpoint{Name: "putUpdateSingleUserProperty", Method: http.MethodPut, Slug: "tenants/:tenantId/users/:userId/properties/:userPropertyKey"}
	DeleteSingleUserProperty    = Endpoint{Name: "deleteSingleUserProperty", Method: http.MethodDelete, Slug: "tenants/:tenantId/users/:userId/properties/:userPropertyKey"}

	// FAQs
	GetFaqs = Endpoint{Name: "getFaqs", Method: http.MethodGet, Slug: "tenants/:tenantId/applications/:applicationId/faqs"}
)

var catalog = []Endpoint{
	PostCreateAsset,
	PostLogin, PostLogout, GetUserInfo,
	GetCards, PostBulkAnswerQuestions, GetFeedbackForm, PostSubmitFeedbackForm,
	PostBulkSubmitSessions, PostPushTokens,
	GetRoadmap, GetPaginateTickets, PostVoteForTicket, DeleteVoteForTicket,
	GetRelease, GetPaginateReleases, GetAppInfo,
	UpdateUserInfo, PostUpdateAvatar, DeleteAvatar, DeleteUser,
	GetUserProperties, PutReplaceUserProperties, PatchUpdateUserProperties,
	DeleteAllUserProperties, PutUpdateSingleUserProperty, DeleteSingleUserProperty,
	GetFaqs,
}

// All returns a copy of the catalog.
func All() []Endpoint {
	out := make([]Endpoint, len(catalog))
	copy(out, catalog)
	return out
}
