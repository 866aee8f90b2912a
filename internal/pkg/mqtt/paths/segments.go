package paths

// Topic segments of the rover protocol.
// Every topic is {root}/{segment}/{robotID}.

// Downstream: control server -> rover.
const (
	// Intent carries one JSON intent message per publish.
	Intent = "intent"
)

// Upstream: rover -> control server.
const (
	// Result carries {"action_id","success","message"} reports.
	Result = "result"

	// Online carries the retained {"online": bool} presence flag. The
	// broker publishes the offline value as the Last Will.
	Online = "online"
)
