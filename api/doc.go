// Package api provides the HTTP REST API for Rock Maze runs.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                 - Start a run ({"level_id": "..."}; empty uses the default level)
//   - GET    /api/sessions                 - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}            - Session info
//   - DELETE /api/sessions/{id}            - Delete a session
//
// Runs:
//   - GET  /api/sessions/{id}/state        - Full run state, inactive rocks included
//   - GET  /api/sessions/{id}/snapshot     - What the agent sees this tick
//   - POST /api/sessions/{id}/decision     - Play one tick ({"decision": "WAIT" | "x y LEFT|RIGHT", "reset": false})
//   - POST /api/sessions/{id}/decisions    - Play several ticks ({"decisions": [...], "reset": false})
//   - POST /api/sessions/{id}/reset        - Restart the run
//   - GET  /api/sessions/{id}/history      - Turn history (?page=1&limit=20&order=desc)
//
// Levels and results:
//   - GET  /api/levels                     - List level files
//   - GET  /api/levels/{name}              - Level description
//   - POST /api/levels                     - Save a level (?id=name.in writes the text format)
//   - GET  /api/results                    - Finished runs, newest first (?limit=N)
//
// Viewers connect to GET /ws?session={id}.
//
// Errors are returned as {"error": "..."}. Unknown sessions and levels map to 404,
// invalid levels to 400, and decisions for a finished run to 409.
//
// A rule violation is not an HTTP error: the decision endpoint answers 200 with
// success=false and the run's result, kind included (for example "OccupiedCell").
package api
