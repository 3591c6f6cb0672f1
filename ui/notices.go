package ui

import "sync"

// Notice is a user-visible message scoped to the renderer that raised it.
type Notice struct {
	Scope   string
	Message string
}

// noticeLog collects notices raised during a render pass. It is cleared at
// the start of each pass so stale notices never linger across uploads.
type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) add(scope, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Scope: scope, Message: message})
}

func (n *noticeLog) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = nil
}

func (n *noticeLog) all() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}
