package voice

// Bucket groups commands that share a confidence threshold
type Bucket string

const (
	BucketDynamic  Bucket = "dynamic"
	BucketMovement Bucket = "movement"
	BucketAction   Bucket = "action"
	BucketGame     Bucket = "game"
)

// DefaultThresholds are the minimum transcript confidences per bucket. The
// dynamic bucket has no entry: per-player matches keep the provider's
// confidence as reported.
var DefaultThresholds = map[Bucket]float64{
	BucketMovement: 0.7,
	BucketAction:   0.8,
	BucketGame:     0.6,
}

type vocabEntry struct {
	Command string
	Bucket  Bucket
	Aliases []string
}

// vocabulary is the fixed fallback used when a transcript does not hit the
// player's own trigger word
var vocabulary = []vocabEntry{
	{Command: "left", Bucket: BucketMovement, Aliases: []string{"left", "go left", "turn left"}},
	{Command: "right", Bucket: BucketMovement, Aliases: []string{"right", "go right", "turn right"}},
	{Command: "up", Bucket: BucketMovement, Aliases: []string{"up", "go up"}},
	{Command: "down", Bucket: BucketMovement, Aliases: []string{"down", "go down"}},
	{Command: "forward", Bucket: BucketMovement, Aliases: []string{"forward", "go forward", "ahead"}},
	{Command: "back", Bucket: BucketMovement, Aliases: []string{"back", "backward", "backwards", "go back"}},
	{Command: "jump", Bucket: BucketAction, Aliases: []string{"jump", "hop"}},
	{Command: "boost", Bucket: BucketAction, Aliases: []string{"boost", "turbo"}},
	{Command: "pull", Bucket: BucketAction, Aliases: []string{"pull", "pull harder"}},
	{Command: "push", Bucket: BucketAction, Aliases: []string{"push"}},
	{Command: "faster", Bucket: BucketGame, Aliases: []string{"faster", "speed up"}},
	{Command: "heave", Bucket: BucketGame, Aliases: []string{"heave", "heave ho"}},
	{Command: "go", Bucket: BucketGame, Aliases: []string{"go", "go go go"}},
}
