package usecase

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillswap/skillswap/internal/models"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return models.Conflictf("user already exists")
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, update mongodb.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Location != nil {
		user.Location = *update.Location
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.Avatar != nil {
		user.Avatar = *update.Avatar
	}
	if update.SkillsOffered != nil {
		user.SkillsOffered = update.SkillsOffered
	}
	if update.SkillsWanted != nil {
		user.SkillsWanted = update.SkillsWanted
	}
	if update.Availability != nil {
		user.Availability = update.Availability
	}
	if update.Preferences != nil {
		user.Preferences = *update.Preferences
	}
	user.UpdatedAt = time.Now()
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) Search(ctx context.Context, params mongodb.SearchParams) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeUserRepo) ListOnline(ctx context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		if u.IsOnline {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) CompareAndSetRating(ctx context.Context, id primitive.ObjectID, prevReviews int64, rating float64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok || user.TotalReviews != prevReviews {
		return false, nil
	}
	user.Rating = rating
	user.TotalReviews++
	return true, nil
}

func (f *fakeUserRepo) SetOnline(ctx context.Context, userID string, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}
	if user, ok := f.users[id]; ok {
		user.IsOnline = online
		user.LastSeen = time.Now()
	}
	return nil
}

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[primitive.ObjectID]*models.SkillOffer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[primitive.ObjectID]*models.SkillOffer)}
}

func (f *fakeOfferRepo) Create(ctx context.Context, offer *models.SkillOffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	offer.ID = primitive.NewObjectID()
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt
	if offer.Requests == nil {
		offer.Requests = []models.SkillRequest{}
	}
	clone := *offer
	f.offers[offer.ID] = &clone
	return nil
}

func (f *fakeOfferRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.SkillOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	offer, ok := f.offers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *offer
	clone.Requests = append([]models.SkillRequest(nil), offer.Requests...)
	return &clone, nil
}

func (f *fakeOfferRepo) ListActive(ctx context.Context, filter mongodb.OfferFilter) ([]*models.SkillOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SkillOffer
	for _, o := range f.offers {
		if !o.IsActive {
			continue
		}
		if filter.Category != "" && o.Skill.Category != filter.Category {
			continue
		}
		clone := *o
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeOfferRepo) ListByOwner(ctx context.Context, userID primitive.ObjectID) ([]*models.SkillOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SkillOffer
	for _, o := range f.offers {
		if o.UserID == userID {
			clone := *o
			clone.Requests = append([]models.SkillRequest(nil), o.Requests...)
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeOfferRepo) AppendRequest(ctx context.Context, offerID primitive.ObjectID, request models.SkillRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	offer, ok := f.offers[offerID]
	if !ok || !offer.IsActive {
		return models.ErrNotFound
	}
	offer.Requests = append(offer.Requests, request)
	return nil
}

func (f *fakeOfferRepo) SetRequestStatus(ctx context.Context, offerID, requestID primitive.ObjectID, status models.RequestStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	offer, ok := f.offers[offerID]
	if !ok {
		return false, nil
	}
	for i := range offer.Requests {
		if offer.Requests[i].ID == requestID && offer.Requests[i].Status == models.RequestPending {
			offer.Requests[i].Status = status
			return true, nil
		}
	}
	return false, nil
}

type fakeChatRepo struct {
	mu    sync.Mutex
	chats map[primitive.ObjectID]*models.Chat

	// missLookups forces that many FindMessageByClientKey calls to report
	// not-found, mimicking lookups that race ahead of an in-flight append.
	missLookups int
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[primitive.ObjectID]*models.Chat)}
}

func (f *fakeChatRepo) FindOrCreate(ctx context.Context, userA, userB primitive.ObjectID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	participants := models.CanonicalParticipants(userA, userB)
	for _, c := range f.chats {
		if c.IsActive && c.Participants[0] == participants[0] && c.Participants[1] == participants[1] {
			clone := *c
			return &clone, nil
		}
	}
	now := time.Now()
	chat := &models.Chat{
		ID:           primitive.NewObjectID(),
		Participants: participants,
		Messages:     []models.Message{},
		LastMessage:  now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.chats[chat.ID] = chat
	clone := *chat
	return &clone, nil
}

func (f *fakeChatRepo) GetByID(ctx context.Context, chatID primitive.ObjectID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[chatID]
	if !ok || !chat.IsActive {
		return nil, models.ErrNotFound
	}
	clone := *chat
	clone.Messages = append([]models.Message(nil), chat.Messages...)
	return &clone, nil
}

func (f *fakeChatRepo) ListForParticipant(ctx context.Context, userID primitive.ObjectID) ([]*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Chat
	for _, c := range f.chats {
		if c.IsActive && c.HasParticipant(userID) {
			clone := *c
			clone.Messages = append([]models.Message(nil), c.Messages...)
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) AppendMessage(ctx context.Context, chatID, senderID primitive.ObjectID, message models.Message) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[chatID]
	if !ok || !chat.IsActive || !chat.HasParticipant(senderID) {
		return nil, models.ErrNotFound
	}
	if message.ClientKey != "" {
		for _, m := range chat.Messages {
			if m.SenderID == senderID && m.ClientKey == message.ClientKey {
				return nil, models.ErrNotFound
			}
		}
	}
	chat.Messages = append(chat.Messages, message)
	chat.LastMessage = message.Timestamp
	chat.UpdatedAt = message.Timestamp
	clone := *chat
	clone.Messages = append([]models.Message(nil), chat.Messages...)
	return &clone, nil
}

func (f *fakeChatRepo) FindMessageByClientKey(ctx context.Context, chatID, senderID primitive.ObjectID, clientKey string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missLookups > 0 {
		f.missLookups--
		return nil, models.ErrNotFound
	}
	chat, ok := f.chats[chatID]
	if !ok {
		return nil, models.ErrNotFound
	}
	for i := range chat.Messages {
		m := chat.Messages[i]
		if m.SenderID == senderID && m.ClientKey == clientKey {
			return &m, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeChatRepo) MarkMessagesRead(ctx context.Context, chatID, readerID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[chatID]
	if !ok || !chat.IsActive || !chat.HasParticipant(readerID) {
		return models.ErrNotFound
	}
	for i := range chat.Messages {
		if chat.Messages[i].SenderID != readerID {
			chat.Messages[i].Read = true
		}
	}
	return nil
}

func (f *fakeChatRepo) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, c := range f.chats {
		if !c.IsActive || !c.HasParticipant(userID) {
			continue
		}
		for _, m := range c.Messages {
			if m.SenderID != userID && !m.Read {
				count++
			}
		}
	}
	return count, nil
}

// recordingBroadcaster captures fan-out targets per event name.
type recordingBroadcaster struct {
	mu      sync.Mutex
	toUsers []sentEvent
	toConns []sentEvent
}

type sentEvent struct {
	target string
	event  models.SocketEvent
}

func (r *recordingBroadcaster) SendToUser(userID string, event models.SocketEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toUsers = append(r.toUsers, sentEvent{target: userID, event: event})
	return true
}

func (r *recordingBroadcaster) SendToConn(connID string, event models.SocketEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toConns = append(r.toConns, sentEvent{target: connID, event: event})
	return true
}
