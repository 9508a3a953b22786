package mux

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_Serialises(t *testing.T) {
	keyed := NewKeyed()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keyed.Lock("r-1")
			defer keyed.Unlock("r-1")
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestKeyed_IndependentKeys(t *testing.T) {
	keyed := NewKeyed()
	keyed.Lock("r-1")
	defer keyed.Unlock("r-1")

	done := make(chan struct{})
	go func() {
		keyed.Lock("r-2")
		keyed.Unlock("r-2")
		close(done)
	}()
	<-done
}
