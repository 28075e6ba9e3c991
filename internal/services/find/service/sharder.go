package service

import (
	"context"

	domdom "github.com/alexmarder/hloc/internal/services/domains/domain"
)

// sharder pages one worker's partition by keyset on domain id. Only the current
// page is held, so a restarted worker can resume from any id
type sharder struct {
	port domdom.ShardPort
	in   domdom.ShardInput
	done bool
}

func newSharder(port domdom.ShardPort, in domdom.ShardInput) *sharder {
	return &sharder{port: port, in: in}
}

// next returns the following page; an empty page means the partition is exhausted
func (s *sharder) next(ctx context.Context) ([]domdom.Domain, error) {
	if s.done {
		return nil, nil
	}
	page, err := s.port.ListShard(ctx, s.in)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		s.done = true
		return nil, nil
	}
	// the port may cap Limit, so a short page does not end the partition
	s.in.AfterID = page[len(page)-1].ID
	return page, nil
}
