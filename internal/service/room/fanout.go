package room

import "github.com/sharetube/playsync/internal/domain"

type deliveryResult struct {
	SentTo  int
	Dropped []string
}

// broadcast delivers ev to every current participant. Delivery is best
// effort: a participant whose queue is full or closed misses the event and
// nothing is retried. Callers hold s.mu.
func (s *session) broadcast(ev domain.Event) deliveryResult {
	res := deliveryResult{}
	for id, p := range s.participants {
		if err := p.Send(ev); err != nil {
			s.logger.Warn("dropped event", "participant_id", id, "event", ev.Type(), "error", err)
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SentTo++
	}

	s.logger.Debug("broadcast result", "event", ev.Type(), "sent_to", res.SentTo, "dropped", len(res.Dropped))
	return res
}
