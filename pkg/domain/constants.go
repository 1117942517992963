package domain

// EndConversation is the reserved routing target meaning "end the conversation".
const EndConversation = "END_CONVERSATION"

// DefaultFlowID is the flow every question belongs to.
const DefaultFlowID = "default-flow"

// TempStartNodeID is the id of the start node synthesized for an empty store.
const TempStartNodeID = "temp-start-node"

// TempPrefix marks client-generated ids that have no remote record yet.
const TempPrefix = "temp-"
