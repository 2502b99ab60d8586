package sms

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"

	"github.com/aelexs/smsgateway/internal/domain"
)

func TestIssuedIDs_EvictsOldest(t *testing.T) {
	// Arrange
	set := NewIssuedIDs(3)
	ids := make([]domain.MessageID, 5)
	for i := range ids {
		ids[i] = domain.MustMessageID(fmt.Sprintf("id-%d", i))
	}

	// Act
	for _, id := range ids {
		set.Add(id)
	}

	// Assert
	assert.Equal(t, 3, set.Len())
	assert.False(t, set.Contains(ids[0]))
	assert.False(t, set.Contains(ids[1]))
	assert.True(t, set.Contains(ids[2]))
	assert.True(t, set.Contains(ids[3]))
	assert.True(t, set.Contains(ids[4]))
}

func TestIssuedIDs_DuplicateAddKeepsSize(t *testing.T) {
	set := NewIssuedIDs(2)
	a := domain.MustMessageID("a")
	b := domain.MustMessageID("b")

	set.Add(a)
	set.Add(a)
	set.Add(b)

	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains(a))
	assert.True(t, set.Contains(b))
}

func TestIssuedIDs_DefaultLimit(t *testing.T) {
	set := NewIssuedIDs(0)

	for i := 0; i < DefaultIssuedLimit+10; i++ {
		set.Add(domain.MustMessageID(fmt.Sprintf("id-%d", i)))
	}

	assert.Equal(t, DefaultIssuedLimit, set.Len())
}

func TestIssuedIDs_ConcurrentAdds(t *testing.T) {
	set := NewIssuedIDs(50)

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 100; i++ {
				set.Add(domain.MustMessageID(fmt.Sprintf("w%d-%d", w, i)))
			}
			return nil
		})
	}
	_ = g.Wait()

	assert.Equal(t, 50, set.Len())
}
