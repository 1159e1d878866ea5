package coach

import (
	"context"
	"log"
	"sync"
	"time"

	"glovy/backend/internal/analysis"
	"glovy/backend/internal/broadcast"
	"glovy/backend/internal/config"
	"glovy/backend/internal/models"
	"glovy/backend/internal/storage"
)

// Processor turns one qualifying inbound message into at most one persisted
// coach message. Every failure path is caught, logged with elapsed time, and
// becomes "no message produced": the caller is a background task with no one
// to observe an error.
type Processor struct {
	Storage     storage.Storage
	Broadcaster broadcast.Broadcaster
	Classifier  Classifier
	Generator   Generator
	Templates   *TemplateBank
	Policy      *Policy
	Detector    *analysis.Detector

	// Persona is both the sender role on coach messages and the label used
	// to recognize the coach's own messages in history.
	Persona string

	alerts Notifier
}

// NewProcessor wires the pipeline from its collaborators and config.
func NewProcessor(s storage.Storage, b broadcast.Broadcaster, c Classifier, g Generator, cfg *config.Config) *Processor {
	return &Processor{
		Storage:     s,
		Broadcaster: b,
		Classifier:  c,
		Generator:   g,
		Templates:   NewTemplateBank(cfg.TemplateTriggers),
		Policy: &Policy{
			Persona:          cfg.Persona,
			MinMessages:      cfg.MinMessages,
			CooldownLookback: config.CoachCooldownLookback,
		},
		Detector: analysis.NewDetector(cfg.Persona),
		Persona:  cfg.Persona,
	}
}

// SetNotifier attaches an optional moderator alert sink.
func (p *Processor) SetNotifier(n Notifier) {
	p.alerts = n
}

// Run consumes the realtime event queue, dispatching one goroutine per
// event. Conversations are processed concurrently with no cross-conversation
// ordering; cancellation is a clean exit.
func (p *Processor) Run(ctx context.Context, events <-chan models.Message) {
	log.Println("Message processor started.")
	for {
		select {
		case <-ctx.Done():
			log.Println("Message processor stopped.")
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			go func(m models.Message) {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("ERROR: panic processing message %s: %v", m.ID, r)
					}
				}()
				p.ProcessMessage(ctx, m)
			}(msg)
		}
	}
}

// ProcessMessage handles one participant message end to end: load state,
// classify, gate, generate, persist. Returns the persisted coach message or
// nil when no reply was produced.
func (p *Processor) ProcessMessage(ctx context.Context, incoming models.Message) *models.Message {
	start := time.Now()

	if incoming.MatchID == "" {
		log.Printf("WARNING: Message missing match_id")
		return nil
	}

	// Upstream delivery is at least once; claim the triggering message id
	// before doing anything that could produce a reply.
	if incoming.ID != "" {
		claimed, err := p.Storage.MarkRepliedOnce(incoming.ID)
		if err != nil {
			// Dedup is advisory; a broken Redis must not mute the coach.
			log.Printf("WARNING: Replied-once check failed for message %s: %v", incoming.ID, err)
		} else if !claimed {
			log.Printf("Duplicate delivery of message %s, skipping", incoming.ID)
			return nil
		}
	}

	match, err := p.Storage.GetMatch(incoming.MatchID)
	if err != nil {
		log.Printf("ERROR: Failed to load match %s: %v", incoming.MatchID, err)
		return nil
	}
	if match == nil {
		log.Printf("WARNING: Match %s not found", incoming.MatchID)
		return nil
	}

	initiator, invitee, ok := p.loadParticipants(match)
	if !ok {
		return nil
	}

	history, err := p.Storage.GetRecentMessages(match.ID, config.HistoryLimit, storage.RecentMessagesOpts{
		ExcludeSenderRole: p.Persona,
	})
	if err != nil {
		log.Printf("WARNING: Failed to load history for match %s: %v", match.ID, err)
	}

	cc := Context{
		Match:      match,
		Initiator:  initiator,
		Invitee:    invitee,
		History:    history,
		NewMessage: incoming,
	}

	log.Printf("Analyzing tone for message in match %s", match.ID)
	trigger, err := p.Classifier.Classify(ctx, cc)
	if err != nil {
		// Classification failure must never block the conversation.
		log.Printf("ERROR: Tone analysis failed for match %s: %v", match.ID, err)
		trigger = models.TriggerSilent
	}
	log.Printf("Detected trigger: %s", trigger)

	if trigger == models.TriggerSilent {
		return nil
	}

	// The policy needs the coach's own replies visible: the cooldown rule
	// checks whether the persona appears in the trailing window. Only the
	// classifier view above is participant-only.
	fullHistory, err := p.Storage.GetRecentMessages(match.ID, config.HistoryLimit, storage.RecentMessagesOpts{})
	if err != nil {
		log.Printf("WARNING: Failed to load full history for match %s: %v", match.ID, err)
		fullHistory = history
	}

	decision := p.Policy.Decide(trigger, match.Phase(), fullHistory)
	if !decision.Respond {
		return nil
	}

	behavior, tier := p.Detector.Detect(incoming.Body, fullHistory)

	if decision.Urgency == UrgencyHigh && p.alerts != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("ERROR: panic in escalation alert: %v", r)
				}
			}()
			p.alerts.NotifyEscalation(match.ID, trigger, string(tier))
		}()
	}

	channel := p.channelFor(ctx, match.ID)
	stopTyping := p.startTyping(ctx, channel, incoming.ID, nil)
	defer stopTyping()

	// Generation sees the coach's own messages too.
	cc.History = fullHistory

	var reply string
	if p.Templates.Eligible(trigger, behavior, tier) {
		reply = p.Templates.Pick(trigger, behavior, tier, false)
		if reply != "" {
			log.Printf("Template response for match %s (trigger=%s, tier=%s)", match.ID, trigger, tier)
		}
	}
	if reply == "" {
		log.Printf("Generating response for match %s", match.ID)
		reply, err = p.Generator.GenerateMessage(ctx, cc, trigger)
		if err != nil {
			log.Printf("ERROR: Failed to generate response for match %s: %v", match.ID, err)
		}
	}
	if reply == "" {
		stopTyping()
		log.Printf("No response text produced for match %s in %.2fs", match.ID, time.Since(start).Seconds())
		return nil
	}

	stopTyping()

	saved, err := p.Storage.InsertCoachMessage(storage.InsertCoachMessageParams{
		MatchID:    match.ID,
		Body:       reply,
		SenderRole: p.Persona,
		Persona:    p.Persona,
	})
	if err != nil || saved == nil {
		log.Printf("ERROR: Failed to insert coach response for match %s", match.ID)
		return nil
	}

	elapsed := time.Since(start)
	log.Printf("Coach response inserted for match %s in %.2fs", match.ID, elapsed.Seconds())
	if elapsed > config.ResponseSoftBudget {
		log.Printf("WARNING: Total processing time exceeded %v: %.2fs", config.ResponseSoftBudget, elapsed.Seconds())
	}
	return saved
}

// ProcessWhisper handles an explicit private-coaching request from one
// participant. It bypasses trigger gating: a whisper request always gets a
// reply attempt, addressed to the requester in second person and visible
// only to them.
func (p *Processor) ProcessWhisper(ctx context.Context, req models.Message) *models.Message {
	start := time.Now()

	if req.MatchID == "" {
		log.Printf("WARNING: Whisper request missing match_id")
		return nil
	}

	channel := p.channelFor(ctx, req.MatchID)
	stopTyping := p.startTyping(ctx, channel, req.ID, req.SenderID)
	defer stopTyping()

	match, err := p.Storage.GetMatch(req.MatchID)
	if err != nil {
		log.Printf("ERROR: Failed to load match %s: %v", req.MatchID, err)
		return nil
	}
	if match == nil {
		log.Printf("WARNING: Match %s not found", req.MatchID)
		return nil
	}

	initiator, invitee, ok := p.loadParticipants(match)
	if !ok {
		return nil
	}

	if req.SenderRole == "" && req.SenderID != nil {
		req.SenderRole = match.ParticipantRole(*req.SenderID)
	}

	history, err := p.Storage.GetRecentMessages(match.ID, config.HistoryLimit, storage.RecentMessagesOpts{
		IncludeWhispers: true,
	})
	if err != nil {
		log.Printf("WARNING: Failed to load history for match %s: %v", match.ID, err)
	}

	cc := Context{
		Match:      match,
		Initiator:  initiator,
		Invitee:    invitee,
		History:    history,
		NewMessage: req,
	}

	// Fast path: when the request itself shows a well-known behavior, the
	// second-person template set beats a generator round trip.
	var reply string
	behavior, tier := p.Detector.Detect(req.Body, history)
	if trigger := triggerForBehavior(behavior); trigger != models.TriggerSilent && p.Templates.Eligible(trigger, behavior, tier) {
		reply = p.Templates.Pick(trigger, behavior, tier, true)
	}
	if reply == "" {
		log.Printf("Generating whisper for match %s", match.ID)
		reply, err = p.Generator.GenerateWhisper(ctx, cc)
		if err != nil {
			log.Printf("ERROR: Failed to generate whisper for match %s: %v", match.ID, err)
		}
	}
	if reply == "" {
		stopTyping()
		log.Printf("No whisper text produced for match %s in %.2fs", match.ID, time.Since(start).Seconds())
		return nil
	}

	stopTyping()

	saved, err := p.Storage.InsertCoachMessage(storage.InsertCoachMessageParams{
		MatchID:     match.ID,
		Body:        reply,
		SenderRole:  p.Persona,
		Persona:     p.Persona,
		RecipientID: req.SenderID,
		IsWhisper:   true,
	})
	if err != nil || saved == nil {
		log.Printf("ERROR: Failed to insert whisper for match %s", match.ID)
		return nil
	}

	elapsed := time.Since(start)
	log.Printf("Whisper inserted for match %s in %.2fs", match.ID, elapsed.Seconds())
	if elapsed > config.ResponseSoftBudget {
		log.Printf("WARNING: Total processing time exceeded %v: %.2fs", config.ResponseSoftBudget, elapsed.Seconds())
	}
	return saved
}

// loadParticipants resolves both participant profiles. Store faults and
// dangling references are distinct conditions and are logged apart.
func (p *Processor) loadParticipants(match *models.Match) (*models.Profile, *models.Profile, bool) {
	initiator, err := p.Storage.GetProfile(match.InitiatorID)
	if err != nil {
		log.Printf("ERROR: Failed to load profile %s: %v", match.InitiatorID, err)
		return nil, nil, false
	}
	invitee, err := p.Storage.GetProfile(match.InviteeID)
	if err != nil {
		log.Printf("ERROR: Failed to load profile %s: %v", match.InviteeID, err)
		return nil, nil, false
	}
	if initiator == nil || invitee == nil {
		log.Printf("WARNING: Invitee or initiator not found for match %s", match.ID)
		return nil, nil, false
	}
	return initiator, invitee, true
}

// channelFor resolves the match's typing channel. Failure is logged and
// yields nil: typing indicators are best effort.
func (p *Processor) channelFor(ctx context.Context, matchID string) *broadcast.Channel {
	channel, err := p.Broadcaster.GetOrCreateChannel(ctx, matchID)
	if err != nil {
		log.Printf("WARNING: Failed to get/create channel for match %s: %v", matchID, err)
		return nil
	}
	return channel
}

// startTyping emits "typing started" and returns a stop function that emits
// "typing stopped" exactly once, no matter how many paths call it. When the
// channel is nil both signals are skipped.
func (p *Processor) startTyping(ctx context.Context, ch *broadcast.Channel, messageID string, userID *string) func() {
	if ch == nil {
		return func() {}
	}

	if err := p.Broadcaster.Send(ctx, ch, broadcast.EventTyping, broadcast.TypingPayload{
		MessageID: messageID,
		IsTyping:  true,
		UserID:    userID,
	}); err != nil {
		log.Printf("WARNING: Failed to send typing broadcast: %v", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := p.Broadcaster.Send(ctx, ch, broadcast.EventTyping, broadcast.TypingPayload{
				MessageID: messageID,
				IsTyping:  false,
				UserID:    userID,
			}); err != nil {
				log.Printf("WARNING: Failed to send typing broadcast: %v", err)
			}
		})
	}
}

// triggerForBehavior maps fast-path behaviors onto their trigger
// counterparts; behaviors with no counterpart map to silent.
func triggerForBehavior(b analysis.Behavior) models.Trigger {
	switch b {
	case analysis.BehaviorInterruption:
		return models.TriggerInterruption
	case analysis.BehaviorContempt:
		return models.TriggerContemptOrInsult
	case analysis.BehaviorStonewalling:
		return models.TriggerStonewallingOrWithdrawal
	case analysis.BehaviorPositive:
		return models.TriggerPositiveBehavior
	}
	return models.TriggerSilent
}
