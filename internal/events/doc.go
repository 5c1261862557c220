// Package events provides a minimal in-process event system used to
// decouple the import service from background task scheduling. The service
// emits task request events; a handler in the task package turns them into
// queued pipeline tasks.
package events
