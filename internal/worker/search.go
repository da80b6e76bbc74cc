package worker

import "github.com/danmuck/pagectl/internal/registry"

// SearchEvents proxies keyword search over the instance's event registry.
func (s *Server) SearchEvents(keyword string) []registry.EventInfo {
	return s.reg.Search(keyword)
}
