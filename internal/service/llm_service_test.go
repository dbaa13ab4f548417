package service

import (
	"fmt"
	"sync"
	"testing"
)

func TestLLMServiceTokenConcurrentRefresh(t *testing.T) {
	s := &LLMService{accessToken: "initial"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.setToken(fmt.Sprintf("token-%d-%d", i, j))
				if s.token() == "" {
					t.Error("token read as empty during refresh")
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if s.token() == "initial" {
		t.Error("token was never refreshed")
	}
}
