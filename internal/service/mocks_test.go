package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"live-announcer/internal/domain"
	"live-announcer/internal/logger"
)

type recordKey struct {
	platform string
	id       domain.StreamerIdentity
}

// mockAnnouncementRepository is an in-memory AnnouncementRepository that counts writes
type mockAnnouncementRepository struct {
	mu        sync.Mutex
	records   map[recordKey]domain.AnnouncementRecord
	writes    int
	findErr   error
	upsertErr error
	deleteErr error
}

func newMockAnnouncementRepository() *mockAnnouncementRepository {
	return &mockAnnouncementRepository{records: make(map[recordKey]domain.AnnouncementRecord)}
}

func (m *mockAnnouncementRepository) FindByStreamerIdentity(ctx context.Context, platform string, id domain.StreamerIdentity) (*domain.AnnouncementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	record, ok := m.records[recordKey{platform, id}]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *mockAnnouncementRepository) FindByStreamID(ctx context.Context, streamID string) (*domain.AnnouncementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, record := range m.records {
		if record.StreamID == streamID {
			r := record
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockAnnouncementRepository) Upsert(ctx context.Context, record *domain.AnnouncementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.writes++
	m.records[recordKey{record.Platform, record.StreamerIdentity}] = *record
	return nil
}

func (m *mockAnnouncementRepository) Delete(ctx context.Context, platform string, id domain.StreamerIdentity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.writes++
	delete(m.records, recordKey{platform, id})
	return nil
}

func (m *mockAnnouncementRepository) List(ctx context.Context) ([]*domain.AnnouncementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.AnnouncementRecord, 0, len(m.records))
	for _, record := range m.records {
		r := record
		out = append(out, &r)
	}
	return out, nil
}

// get returns the twitch record for id
func (m *mockAnnouncementRepository) get(id domain.StreamerIdentity) (domain.AnnouncementRecord, bool) {
	return m.getOn("twitch", id)
}

func (m *mockAnnouncementRepository) getOn(platform string, id domain.StreamerIdentity) (domain.AnnouncementRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[recordKey{platform, id}]
	return r, ok
}

func (m *mockAnnouncementRepository) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// mockChatClient keeps messages in memory and counts every call
type mockChatClient struct {
	mu       sync.Mutex
	messages map[string]*domain.Message
	nextID   int
	creates  int
	edits    int
	fetches  int
	// gate, when set, is received from before each create so tests can hold calls open
	gate      chan struct{}
	createErr error
	editErr   error
	fetchErr  error
	// createNothing makes CreateMessage succeed without returning a message
	createNothing bool
}

func newMockChatClient() *mockChatClient {
	return &mockChatClient{messages: make(map[string]*domain.Message)}
}

func (m *mockChatClient) FetchMessage(ctx context.Context, channelID, messageID string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	msg, ok := m.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s not found", messageID)
	}
	copied := *msg
	return &copied, nil
}

func (m *mockChatClient) CreateMessage(ctx context.Context, channelID, content string, embed *domain.Embed) (*domain.Message, error) {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createNothing {
		return nil, nil
	}
	m.nextID++
	msg := &domain.Message{ID: fmt.Sprintf("msg-%d", m.nextID), ChannelID: channelID, Content: content, Embed: copyEmbed(embed)}
	m.messages[msg.ID] = msg
	copied := *msg
	return &copied, nil
}

func (m *mockChatClient) EditMessage(ctx context.Context, channelID, messageID, content string, embed *domain.Embed) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits++
	if m.editErr != nil {
		return nil, m.editErr
	}
	msg, ok := m.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s not found", messageID)
	}
	msg.Content = content
	msg.Embed = copyEmbed(embed)
	copied := *msg
	return &copied, nil
}

func (m *mockChatClient) message(id string) *domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[id]
}

func (m *mockChatClient) counts() (creates, edits, fetches int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.edits, m.fetches
}

func copyEmbed(e *domain.Embed) *domain.Embed {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

func quietLogger() *logger.Logger {
	return logger.NewWithWriter(logger.LevelError, &bytes.Buffer{})
}
