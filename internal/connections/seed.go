package connections

import (
	"context"
	"time"

	"inbox-platform/internal/inbox"

	"github.com/google/uuid"
)

type sampleContact struct {
	name    string
	handle  string
	message string
}

// Demo conversations shown right after connecting a channel.
var sampleContacts = map[string][]sampleContact{
	"whatsapp": {
		{
			name:    "João Silva",
			handle:  "+55 11 99999-1234",
			message: "Olá! Gostaria de saber mais sobre seus produtos.",
		},
	},
	"telegram": {
		{
			name:    "Maria Santos",
			handle:  "@mariasantos",
			message: "Obrigada pelo atendimento!",
		},
	},
	"instagram": {
		{
			name:    "Pedro Costa",
			handle:  "@pedrocostaoficial",
			message: "Quando vocês fazem entrega?",
		},
	},
}

func seedSampleThreads(ctx context.Context, store ThreadStore, userID, channel string, now time.Time) error {
	for _, sample := range sampleContacts[channel] {
		threadID := uuid.NewString()
		th := inbox.Thread{
			ID:               threadID,
			UserID:           userID,
			Channel:          channel,
			ExternalThreadID: "ext_" + threadID,
			ContactName:      sample.name,
			ContactHandle:    sample.handle,
			LastMessageAt:    now,
			Status:           inbox.ThreadStatusNew,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		first := inbox.Message{
			ID:        uuid.NewString(),
			ThreadID:  threadID,
			Channel:   channel,
			Direction: inbox.DirectionIn,
			Body:      sample.message,
			SentAt:    now,
			Status:    inbox.MessageStatusRead,
			CreatedAt: now,
		}
		if err := store.CreateThread(ctx, th, &first); err != nil {
			return err
		}
	}
	return nil
}
