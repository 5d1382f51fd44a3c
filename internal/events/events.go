package events

// Fire-and-forget gamification notifications. Publishing never blocks:
// when no subscriber is draining a channel, events are dropped.

type XPAwardedEvent struct {
	UserID string
	Amount int64
	Reason string
}

type BadgeEarnedEvent struct {
	UserID string
	ID     string
	Label  string
}

type LevelUpEvent struct {
	UserID string
	Level  int
}

type Bus struct {
	XPAwards chan XPAwardedEvent
	Badges   chan BadgeEarnedEvent
	LevelUps chan LevelUpEvent
}

func NewBus() *Bus {
	return &Bus{
		XPAwards: make(chan XPAwardedEvent, 32),
		Badges:   make(chan BadgeEarnedEvent, 32),
		LevelUps: make(chan LevelUpEvent, 32),
	}
}

func (b *Bus) PublishXP(ev XPAwardedEvent) {
	select {
	case b.XPAwards <- ev:
	default:
	}
}

func (b *Bus) PublishBadge(ev BadgeEarnedEvent) {
	select {
	case b.Badges <- ev:
	default:
	}
}

func (b *Bus) PublishLevelUp(ev LevelUpEvent) {
	select {
	case b.LevelUps <- ev:
	default:
	}
}
