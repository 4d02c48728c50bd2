package redis

import "fmt"

const ns = "eventease:v1"

func KeyEvent(eventID int64) string {
	return fmt.Sprintf("%s:event:%d", ns, eventID)
}

func KeyEventList() string {
	return ns + ":events:all"
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemRegistration(eventID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:registrations:%d:%s", ns, eventID, idemKey)
}

func KeyVisitorPrefix() string {
	return ns + ":visitor"
}

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}
