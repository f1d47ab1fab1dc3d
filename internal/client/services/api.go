package services

import (
	"context"
	"strconv"

	"github.com/dmitrijs2005/feedbackkit/internal/client/client"
	"github.com/dmitrijs2005/feedbackkit/internal/client/endpoints"
	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
	"github.com/dmitrijs2005/feedbackkit/internal/netx"
)

// FeedbackAPI is the typed surface of the feedback backend used by the
// content observers and the CLI.
type FeedbackAPI interface {
	PaginateReleases(ctx context.Context, limit, offset int) (models.AppReleaseCollection, error)
	GetRelease(ctx context.Context, releaseID string) (models.AppRelease, error)
	GetRoadmap(ctx context.Context) (models.RoadmapConfiguration, error)
	PaginateTickets(ctx context.Context, limit, offset int, filter string) (models.UserTicketCollection, error)
	VoteForTicket(ctx context.Context, ticketID string) error
	RemoveVoteForTicket(ctx context.Context, ticketID string) error
	GetAppInfo(ctx context.Context, versionToken string) (models.AppInfo, error)
	GetUserInfo(ctx context.Context) (models.UserInfo, error)
	UploadAvatar(ctx context.Context, image []byte, contentType string) (models.User, error)
	SubmitFeedbackForm(ctx context.Context, formID string, data models.FeedbackFormSubmission) error
}

type api struct {
	server *client.Server
	log    logging.Logger
}

func NewFeedbackAPI(server *client.Server, log logging.Logger) FeedbackAPI {
	if log == nil {
		log = logging.Nop()
	}
	return &api{server: server, log: log.With("component", "feedback_api")}
}

func (a *api) PaginateReleases(ctx context.Context, limit, offset int) (models.AppReleaseCollection, error) {
	a.log.Debug(ctx, "paginating releases", "limit", limit, "offset", offset)

	return client.Hit[models.AppReleaseCollection](ctx, a.server, endpoints.GetPaginateReleases,
		client.WithQuery("limit", strconv.Itoa(limit)),
		client.WithQuery("offset", strconv.Itoa(offset)),
	).Unwrap()
}

func (a *api) GetRelease(ctx context.Context, releaseID string) (models.AppRelease, error) {
	return client.Hit[models.AppRelease](ctx, a.server, endpoints.GetRelease,
		client.WithPathParam("releaseId", releaseID),
		client.WithCachePolicy(client.ReturnCacheDataElseLoad),
	).Unwrap()
}

func (a *api) GetRoadmap(ctx context.Context) (models.RoadmapConfiguration, error) {
	return client.Hit[models.RoadmapConfiguration](ctx, a.server, endpoints.GetRoadmap).Unwrap()
}

// PaginateTickets lists tickets for a roadmap tab. An empty filter lists
// every ticket.
func (a *api) PaginateTickets(ctx context.Context, limit, offset int, filter string) (models.UserTicketCollection, error) {
	a.log.Debug(ctx, "paginating tickets", "limit", limit, "offset", offset, "filter", filter)

	opts := []client.Option{
		client.WithQuery("limit", strconv.Itoa(limit)),
		client.WithQuery("offset", strconv.Itoa(offset)),
	}
	if filter != "" {
		opts = append(opts, client.WithQuery("filter", filter))
	}
	return client.Hit[models.UserTicketCollection](ctx, a.server, endpoints.GetPaginateTickets, opts...).Unwrap()
}

func (a *api) VoteForTicket(ctx context.Context, ticketID string) error {
	_, err := client.Hit[models.EmptyResponse](ctx, a.server, endpoints.PostVoteForTicket,
		client.WithPathParam("ticketId", ticketID),
	).Unwrap()
	return err
}

func (a *api) RemoveVoteForTicket(ctx context.Context, ticketID string) error {
	_, err := client.Hit[models.EmptyResponse](ctx, a.server, endpoints.DeleteVoteForTicket,
		client.WithPathParam("ticketId", ticketID),
	).Unwrap()
	return err
}

// GetAppInfo sends versionToken only when it is set, so the backend can
// report a newly installed version.
func (a *api) GetAppInfo(ctx context.Context, versionToken string) (models.AppInfo, error) {
	var opts []client.Option
	if versionToken != "" {
		opts = append(opts, client.WithQuery("version_token", versionToken))
	}
	opts = append(opts, client.WithRequestConfig(client.RequestConfig{
		Reauthenticate: true,
		Retries:        2,
		RetryDelay:     client.DefaultRequestConfig().RetryDelay,
	}))
	return client.Hit[models.AppInfo](ctx, a.server, endpoints.GetAppInfo, opts...).Unwrap()
}

func (a *api) GetUserInfo(ctx context.Context) (models.UserInfo, error) {
	return client.Hit[models.UserInfo](ctx, a.server, endpoints.GetUserInfo).Unwrap()
}

func (a *api) UploadAvatar(ctx context.Context, image []byte, contentType string) (models.User, error) {
	if len(image) == 0 {
		return models.User{}, common.Validation(map[string]string{"image": "must not be empty"})
	}
	if contentType == "" {
		contentType = "image/png"
	}

	fields := []netx.FormField{{
		Name:        "image",
		FileName:    "avatar",
		ContentType: contentType,
		Data:        image,
	}}
	return client.HitUpload[models.User](ctx, a.server, endpoints.PostUpdateAvatar, fields).Unwrap()
}

func (a *api) SubmitFeedbackForm(ctx context.Context, formID string, data models.FeedbackFormSubmission) error {
	if formID == "" {
		return common.Validation(map[string]string{"form_id": "is required"})
	}

	_, err := client.Hit[models.EmptyResponse](ctx, a.server, endpoints.PostSubmitFeedbackForm,
		client.WithPathParam("formId", formID),
		client.WithBody(data),
	).Unwrap()
	return err
}
