package jobs

import (
	"context"
	"fmt"
)

// ConsultationPing nudges the consultation room with one of the configured
// message variations, picked at random.
func (s *Service) ConsultationPing(ctx context.Context) error {
	channelID := s.cfg.Channels.Consultation
	if channelID == 0 {
		return fmt.Errorf("consultation channel not configured")
	}

	variations := s.cfg.Consultation.Variations
	if len(variations) == 0 {
		return fmt.Errorf("no consultation message variations configured")
	}

	message := variations[s.pick(len(variations))]

	ping := ""
	if s.cfg.Consultation.Mention != "" {
		ping = s.cfg.Consultation.Mention + "\n"
	}

	text := fmt.Sprintf("%sデジリューからのおたずねタイム！\n%s\n疑問が浮かんだ瞬間に投げてくれていいんだぞ。", ping, message)

	if err := s.sink.Send(ctx, channelID, text); err != nil {
		return fmt.Errorf("failed to send consultation prompt: %w", err)
	}

	s.metrics.RecordMessage("consultation")

	return s.store.SetLastConsultationPing(s.clock.Now())
}
