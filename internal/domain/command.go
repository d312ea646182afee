package domain

const (
	CommandSetPlaylist = "SET_PLAYLIST"
	CommandPlay        = "PLAY"
	CommandPause       = "PAUSE"
	CommandSeek        = "SEEK"
	CommandNext        = "NEXT"
	CommandPrev        = "PREV"
	CommandPing        = "PING"
)

// Command is the closed set of inbound room commands.
type Command interface {
	Kind() string
	command()
}

// SetPlaylist replaces the playlist. When Playlist is nil and PlaylistId is
// set the playlist must be resolved before the command is applied.
type SetPlaylist struct {
	PlaylistId *string
	Playlist   *Playlist
}

func (SetPlaylist) Kind() string { return CommandSetPlaylist }

// NeedsResolve reports whether the playlist has to be looked up by id.
func (c SetPlaylist) NeedsResolve() bool {
	return c.Playlist == nil && c.PlaylistId != nil
}

type Play struct{}

func (Play) Kind() string { return CommandPlay }

type Pause struct{}

func (Pause) Kind() string { return CommandPause }

type Seek struct {
	Seconds float64
}

func (Seek) Kind() string { return CommandSeek }

type Next struct{}

func (Next) Kind() string { return CommandNext }

type Prev struct{}

func (Prev) Kind() string { return CommandPrev }

type Ping struct{}

func (Ping) Kind() string { return CommandPing }

// Unrecognized carries a message kind nobody handles. Applying it is a no-op.
type Unrecognized struct {
	Type string
}

func (c Unrecognized) Kind() string { return c.Type }

func (SetPlaylist) command()  {}
func (Play) command()         {}
func (Pause) command()        {}
func (Seek) command()         {}
func (Next) command()         {}
func (Prev) command()         {}
func (Ping) command()         {}
func (Unrecognized) command() {}
