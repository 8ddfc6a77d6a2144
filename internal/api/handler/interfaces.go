package handler

import (
	"context"
	"iter"

	"github.com/sanosuguru/sportup/internal/application"
	"github.com/sanosuguru/sportup/internal/domain/event"
	"github.com/sanosuguru/sportup/internal/domain/identity"
	"github.com/sanosuguru/sportup/internal/domain/profile"
	"github.com/sanosuguru/sportup/internal/domain/suggestion"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, actor identity.Identity, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, f event.Filter) (iter.Seq[*event.Event], error)
	ListEventsByParticipant(ctx context.Context, uid string) (iter.Seq[*event.Event], error)
	ListEventsByCreator(ctx context.Context, uid string) (iter.Seq[*event.Event], error)
	UpdateEvent(ctx context.Context, actor identity.Identity, input application.UpdateEventInput) (*event.Event, error)
	DeleteEvent(ctx context.Context, actor identity.Identity, id string) error
	JoinEvent(ctx context.Context, userID, eventID string) (*event.Event, error)
	LeaveEvent(ctx context.Context, userID, eventID string) (*event.Event, error)
}

// ProfileServiceInterface はプロフィールサービスのインターフェース
type ProfileServiceInterface interface {
	Signup(ctx context.Context, actor identity.Identity) (*profile.UserProfile, error)
	GetProfile(ctx context.Context, uid string) (*profile.UserProfile, error)
	UpdateProfile(ctx context.Context, actor identity.Identity, uid string, input application.UpdateProfileInput) (*profile.UserProfile, error)
	UploadPhoto(ctx context.Context, actor identity.Identity, uid string, input application.UploadPhotoInput) (*profile.UserProfile, error)
}

// SuggestionServiceInterface は会場提案サービスのインターフェース
type SuggestionServiceInterface interface {
	SuggestLocation(ctx context.Context, input suggestion.Input) (*suggestion.LocationSuggestion, error)
}

// Pinger は依存サービスの疎通確認
type Pinger interface {
	Ping(ctx context.Context) error
}
