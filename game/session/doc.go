// Package session keeps in-flight Rock Maze runs.
//
// Manager is a thread-safe map of service.Session values keyed by a
// lower-case ID. Generated IDs are 4 hex characters. Each session owns its
// own engine, so rotations in one run never affect another. The manager
// never steps an engine; the game service does, under its own lock, and
// calls Save after every turn.
//
// With a SessionPersistence attached (FilePersistence writes one JSON file
// per session, level included) sessions are written on creation and on Save,
// and Get falls back to storage for sessions that are not in memory.
//
//	persistence, err := session.NewFilePersistence("sessions")
//	manager := session.NewManagerWithPersistence(persistence)
//	sess, err := manager.Create("", "default", level)
//
// Save also records whether the run has finished. CleanupExpiredSessions
// takes a Retention and drops finished runs after Retention.Finished and
// runs in flight after Retention.Idle; their files stay on disk.
package session
