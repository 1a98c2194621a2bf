package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/storage"
	"github.com/atendezap/atende-backend/internal/utils"
)

// FreeMessageWindow is the WhatsApp customer service window: free-form
// messages are allowed only while the client's last inbound message is
// younger than this.
const FreeMessageWindow = 24 * time.Hour

const defaultInactivity = 30 * time.Minute

var (
	ErrChatNotFound      = errors.New("no chat session for this phone")
	ErrChatClosed        = errors.New("chat session is not open")
	ErrAttendantNotFound = errors.New("attendant not found")
	ErrOutsideWindow     = errors.New("24h customer service window is closed")
)

// ChatService is the conversation routing engine: session state machine,
// sector routing with round-robin distribution, working-hour gating and the
// 24h free-messaging window.
type ChatService struct {
	store  storage.Store
	sender WhatsAppSender

	loc        *time.Location
	inactivity time.Duration
	now        func() time.Time

	// Per-phone serialization on top of the store-level upsert: two webhook
	// deliveries for the same phone must never race through the state
	// machine together. Distinct phones run fully in parallel.
	phoneLocks sync.Map
}

// NewChatService creates the routing engine. Timezone and inactivity
// threshold come from CHAT_TIMEZONE and CHAT_INACTIVITY_MINUTES.
func NewChatService(store storage.Store, sender WhatsAppSender) *ChatService {
	tz := os.Getenv("CHAT_TIMEZONE")
	if tz == "" {
		tz = "America/Sao_Paulo"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("⚠️ Invalid CHAT_TIMEZONE %q, falling back to UTC: %v", tz, err)
		loc = time.UTC
	}

	inactivity := defaultInactivity
	if v := os.Getenv("CHAT_INACTIVITY_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			inactivity = time.Duration(minutes) * time.Minute
		}
	}

	return &ChatService{
		store:      store,
		sender:     sender,
		loc:        loc,
		inactivity: inactivity,
		now:        time.Now,
	}
}

func (s *ChatService) lockPhone(phone string) func() {
	v, _ := s.phoneLocks.LoadOrStore(phone, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// chatConfig returns the current configuration, falling back to the built-in
// defaults when none has been saved yet. The engine never stalls on config.
func (s *ChatService) chatConfig() *models.ChatConfig {
	cfg, err := s.store.GetChatConfig()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("⚠️ Failed to load chat config, using defaults: %v", err)
		}
		return models.DefaultChatConfig()
	}
	return cfg
}

// ProcessIncomingMessage runs one inbound webhook event through the state
// machine. Status updates never touch session state; the contact registry is
// updated unconditionally for everything else.
func (s *ChatService) ProcessIncomingMessage(msg *models.Message) error {
	if msg == nil || msg.IsStatusUpdate() {
		return nil
	}
	phone := utils.NormalizePhone(msg.From)
	if phone == "" {
		return fmt.Errorf("inbound message without sender")
	}

	unlock := s.lockPhone(phone)
	defer unlock()

	now := s.now()

	if _, err := s.store.UpsertContact(phone, msg.ProfileName, now); err != nil {
		log.Printf("⚠️ Failed to update contact %s: %v", phone, err)
	}

	cfg := s.chatConfig()

	session, err := s.store.GetSessionByPhone(phone)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	open := err == nil && session.IsOpen()

	// Lazy inactivity enforcement: an expired session is closed on the next
	// inbound message, then the message starts a fresh conversation.
	if open && now.Sub(session.LastInteractionAt) > s.inactivity {
		if cerr := s.store.CloseSession(phone); cerr != nil {
			log.Printf("⚠️ Failed to close inactive session %s: %v", phone, cerr)
		}
		log.Printf("🕒 Session %s closed by inactivity", phone)
		s.sendText(phone, cfg.InactivityClosedMessage)
		open = false
	}

	if !open {
		return s.startMenuSession(phone, now, cfg)
	}

	session.LastInteractionAt = now
	ts := now
	session.LastClientInteractionAt = &ts

	switch session.Status {
	case models.SessionWaitingMenu:
		return s.handleMenuSelection(session, msg, now, cfg)
	case models.SessionActive:
		return s.store.UpdateSession(session)
	}
	return nil
}

// startMenuSession creates (or resets) the session for a first contact and
// sends the greeting menu. The upsert keyed by phone makes concurrent first
// messages collapse into a single waiting_menu session.
func (s *ChatService) startMenuSession(phone string, now time.Time, cfg *models.ChatConfig) error {
	ts := now
	session := &models.ChatSession{
		PhoneNumber:             phone,
		Status:                  models.SessionWaitingMenu,
		LastInteractionAt:       now,
		LastClientInteractionAt: &ts,
	}
	session.CreatedAt = now

	if _, err := s.store.UpsertSession(session); err != nil {
		return err
	}
	log.Printf("💬 New chat session started for %s", phone)

	buttons := cfg.GreetingButtons
	if len(buttons) > models.MaxGreetingButtons {
		buttons = buttons[:models.MaxGreetingButtons]
	}
	return s.sender.SendButtons(phone, cfg.GreetingHeader, cfg.GreetingMessage, buttons)
}

func (s *ChatService) handleMenuSelection(session *models.ChatSession, msg *models.Message, now time.Time, cfg *models.ChatConfig) error {
	replyID := msg.ReplyID()
	btn, ok := cfg.GreetingButtons.Find(replyID)
	if replyID == "" || !ok {
		if err := s.store.UpdateSession(session); err != nil {
			return err
		}
		return s.sendText(session.PhoneNumber, cfg.InvalidOptionMessage)
	}

	if btn.Sector != "" && cfg.HumanSectors.Contains(btn.Sector) {
		return s.routeSector(session, btn.Sector, now, cfg)
	}

	// Queue assignment: no individual attendant, the session is parked on a
	// sentinel owner until someone picks it up from the console.
	queueID := btn.QueueID
	if queueID == "" {
		queueID = models.QueuePrefix + "GEN"
	}
	sector := btn.Sector
	if sector == "" {
		sector = btn.Title
	}

	session.Status = models.SessionActive
	session.AttendantID = queueID
	session.Category = sector
	if err := s.store.UpdateSession(session); err != nil {
		return err
	}
	log.Printf("📝 Chat %s queued on %s (%s)", session.PhoneNumber, queueID, sector)
	return s.sendText(session.PhoneNumber,
		models.RenderTemplate(cfg.QueueRedirectMessage, map[string]string{"sector": sector}))
}

// routeSector assigns an individual attendant for a human-routed sector:
// explicit client binding first, then round-robin over whoever is on shift.
// A bound attendant who is off shift does not strand the client; routing
// falls through to the rotation.
func (s *ChatService) routeSector(session *models.ChatSession, sector string, now time.Time, cfg *models.ChatConfig) error {
	bound, err := s.store.GetAttendantByClientAndSector(session.PhoneNumber, sector)
	if err == nil {
		if s.IsWorkingHour(bound, now) {
			return s.assignAttendant(session, bound, sector, cfg)
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	attendants, err := s.store.ListAttendantsBySector(sector)
	if err != nil {
		return err
	}
	var available []*models.Attendant
	for _, a := range attendants {
		if s.IsWorkingHour(a, now) {
			available = append(available, a)
		}
	}

	if len(available) == 0 {
		// No transition: the client is retried on the next inbound message.
		if err := s.store.UpdateSession(session); err != nil {
			return err
		}
		log.Printf("💤 No attendant available for sector %s (chat %s)", sector, session.PhoneNumber)
		return s.sendText(session.PhoneNumber, cfg.AbsenceMessage)
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].AttendantID < available[j].AttendantID
	})

	return s.assignAttendant(session, s.nextInRotation(sector, available), sector, cfg)
}

// nextInRotation picks the attendant after the sector's rotation cursor in
// the sorted available list. No cursor on record falls back to the session
// history, then to index 0. A cursor pointing at someone who went off shift
// also restarts at index 0.
func (s *ChatService) nextInRotation(sector string, available []*models.Attendant) *models.Attendant {
	cursorID, err := s.store.GetSectorCursor(sector)
	if errors.Is(err, storage.ErrNotFound) {
		cursorID, err = s.store.LastAssignedAttendant(sector)
	}
	if err != nil || cursorID == "" {
		return available[0]
	}

	for i, a := range available {
		if a.AttendantID == cursorID {
			return available[(i+1)%len(available)]
		}
	}
	return available[0]
}

func (s *ChatService) assignAttendant(session *models.ChatSession, attendant *models.Attendant, sector string, cfg *models.ChatConfig) error {
	session.Status = models.SessionActive
	session.AttendantID = attendant.AttendantID
	session.Category = sector
	if err := s.store.UpdateSession(session); err != nil {
		return err
	}
	if err := s.store.SetSectorCursor(sector, attendant.AttendantID); err != nil {
		log.Printf("⚠️ Failed to persist rotation cursor for %s: %v", sector, err)
	}
	log.Printf("✅ Chat %s assigned to %s (%s)", session.PhoneNumber, attendant.AttendantID, sector)

	welcome := attendant.WelcomeMessage
	if welcome == "" {
		welcome = cfg.AttendantAssignedMessage
	}
	return s.sendText(session.PhoneNumber, models.RenderTemplate(welcome, map[string]string{
		"attendant_name": attendant.DisplayName(),
		"sector":         sector,
	}))
}

// IsWorkingHour reports whether the attendant is on shift at the given
// instant, evaluated in the business timezone. Weekday 0 is Monday. Interval
// bounds are inclusive; intervals may be unsorted or overlapping.
func (s *ChatService) IsWorkingHour(attendant *models.Attendant, now time.Time) bool {
	if len(attendant.WorkingHours) == 0 {
		return false
	}
	local := now.In(s.loc)
	weekday := (int(local.Weekday()) + 6) % 7
	current := local.Format("15:04")

	for _, interval := range attendant.WorkingHours[weekday] {
		if interval.Start == "" || interval.End == "" {
			continue
		}
		if interval.Start <= current && current <= interval.End {
			return true
		}
	}
	return false
}

// CanSendFreeMessage reports whether the 24h customer service window is open
// for this phone. Only inbound client activity opens the window; no session
// or no recorded client interaction means closed.
func (s *ChatService) CanSendFreeMessage(phone string) bool {
	session, err := s.store.GetSessionByPhone(utils.NormalizePhone(phone))
	if err != nil || session.LastClientInteractionAt == nil {
		return false
	}
	return s.now().Sub(*session.LastClientInteractionAt) < FreeMessageWindow
}

// StartChat opens (or reopens) a session from the attendant console, bound
// to the given attendant and category. The client's window timestamp is
// preserved across a reopen.
func (s *ChatService) StartChat(phone, attendantID, category string) (*models.ChatSession, error) {
	phone = utils.NormalizePhone(phone)
	if phone == "" || attendantID == "" {
		return nil, fmt.Errorf("phone and attendant are required")
	}
	if !isQueueID(attendantID) {
		if _, err := s.store.GetAttendantByID(attendantID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ErrAttendantNotFound
			}
			return nil, err
		}
	}

	unlock := s.lockPhone(phone)
	defer unlock()

	now := s.now()
	session := &models.ChatSession{
		PhoneNumber:       phone,
		Status:            models.SessionActive,
		AttendantID:       attendantID,
		Category:          category,
		LastInteractionAt: now,
	}
	session.CreatedAt = now
	if existing, err := s.store.GetSessionByPhone(phone); err == nil {
		session.LastClientInteractionAt = existing.LastClientInteractionAt
	}

	stored, err := s.store.UpsertSession(session)
	if err != nil {
		return nil, err
	}
	log.Printf("💬 Chat %s started by attendant %s", phone, attendantID)
	return stored, nil
}

// TransferChat moves an open session to another attendant.
func (s *ChatService) TransferChat(phone, newAttendantID string) error {
	phone = utils.NormalizePhone(phone)
	if !isQueueID(newAttendantID) {
		if _, err := s.store.GetAttendantByID(newAttendantID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrAttendantNotFound
			}
			return err
		}
	}

	unlock := s.lockPhone(phone)
	defer unlock()

	session, err := s.store.GetSessionByPhone(phone)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	if !session.IsOpen() {
		return ErrChatClosed
	}

	session.AttendantID = newAttendantID
	session.LastInteractionAt = s.now()
	if err := s.store.UpdateSession(session); err != nil {
		return err
	}
	log.Printf("🔄 Chat %s transferred to %s", phone, newAttendantID)
	return nil
}

// FinishChat closes an open session.
func (s *ChatService) FinishChat(phone string) error {
	phone = utils.NormalizePhone(phone)

	unlock := s.lockPhone(phone)
	defer unlock()

	if err := s.store.CloseSession(phone); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	log.Printf("🏁 Chat %s finished", phone)
	return nil
}

// GetChat returns the current session for a phone.
func (s *ChatService) GetChat(phone string) (*models.ChatSession, error) {
	session, err := s.store.GetSessionByPhone(utils.NormalizePhone(phone))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return session, nil
}

// ListChats returns the latest session per client, most recent first.
func (s *ChatService) ListChats(limit, offset int) ([]*models.ChatSession, error) {
	if limit <= 0 {
		limit = 300
	}
	return s.store.ListSessions(limit, offset)
}

// ListChatsByAttendant returns the sessions assigned to one attendant.
func (s *ChatService) ListChatsByAttendant(attendantID string) ([]*models.ChatSession, error) {
	return s.store.ListSessionsByAttendant(attendantID)
}

// CloseInactiveSessions is the opt-in background sweep: closes every open
// session whose last interaction is older than the inactivity threshold.
// Returns the number of sessions closed.
func (s *ChatService) CloseInactiveSessions() (int, error) {
	sessions, err := s.store.ListOpenSessions()
	if err != nil {
		return 0, err
	}
	cfg := s.chatConfig()
	closed := 0
	for _, session := range sessions {
		phone := session.PhoneNumber
		unlock := s.lockPhone(phone)

		current, err := s.store.GetSessionByPhone(phone)
		if err != nil || !current.IsOpen() || s.now().Sub(current.LastInteractionAt) <= s.inactivity {
			unlock()
			continue
		}
		if err := s.store.CloseSession(phone); err != nil {
			log.Printf("⚠️ Failed to close inactive session %s: %v", phone, err)
			unlock()
			continue
		}
		unlock()
		closed++
		log.Printf("🕒 Session %s closed by inactivity sweep", phone)
		s.sendText(phone, cfg.InactivityClosedMessage)
	}
	return closed, nil
}

// Outbound messaging, gated on the 24h window. Templates are exempt.

func (s *ChatService) SendTextMessage(to, text string) error {
	phone := utils.NormalizePhone(to)

	unlock := s.lockPhone(phone)
	defer unlock()

	if !s.CanSendFreeMessage(phone) {
		return ErrOutsideWindow
	}
	if err := s.sender.SendText(phone, text); err != nil {
		return err
	}
	s.touchSession(phone)
	return nil
}

func (s *ChatService) SendImageMessage(to, imageURL, caption string) error {
	return s.sendMediaMessage(to, imageURL, caption)
}

func (s *ChatService) SendVideoMessage(to, videoURL, caption string) error {
	return s.sendMediaMessage(to, videoURL, caption)
}

func (s *ChatService) SendDocumentMessage(to, documentURL, caption, filename string) error {
	if caption == "" {
		caption = filename
	}
	return s.sendMediaMessage(to, documentURL, caption)
}

func (s *ChatService) sendMediaMessage(to, mediaURL, caption string) error {
	phone := utils.NormalizePhone(to)

	unlock := s.lockPhone(phone)
	defer unlock()

	if !s.CanSendFreeMessage(phone) {
		return ErrOutsideWindow
	}
	if err := s.sender.SendMedia(phone, caption, mediaURL); err != nil {
		return err
	}
	s.touchSession(phone)
	return nil
}

// SendTemplateMessage sends an approved template. Allowed even outside the
// 24h window, this is how conversations are reopened.
func (s *ChatService) SendTemplateMessage(to, contentSID string, variables map[string]string) error {
	phone := utils.NormalizePhone(to)

	unlock := s.lockPhone(phone)
	defer unlock()

	if err := s.sender.SendTemplate(phone, contentSID, variables); err != nil {
		return err
	}
	s.touchSession(phone)
	return nil
}

// touchSession records outbound attendant activity. It never refreshes the
// client's 24h window. Callers must hold the per-phone lock: the session is
// re-read and written back whole.
func (s *ChatService) touchSession(phone string) {
	session, err := s.store.GetSessionByPhone(phone)
	if err != nil || !session.IsOpen() {
		return
	}
	session.LastInteractionAt = s.now()
	if err := s.store.UpdateSession(session); err != nil {
		log.Printf("⚠️ Failed to record activity on session %s: %v", phone, err)
	}
}

// sendText delivers a chat message, logging delivery failures. Send failures
// never roll back a state transition.
func (s *ChatService) sendText(phone, text string) error {
	if err := s.sender.SendText(phone, text); err != nil {
		log.Printf("❌ Failed to send message to %s: %v", phone, err)
		return err
	}
	return nil
}

func isQueueID(id string) bool {
	return strings.HasPrefix(id, models.QueuePrefix)
}
