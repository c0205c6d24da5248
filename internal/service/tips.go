package service

// tipBuckets maps each mood score (0 = rough day, 3 = great day) to
// its candidate wellness tips. Exactly one tip is drawn per dashboard
// build.
var tipBuckets = [4][]string{
	{ // 0 – rough
		"Rest is productive too. Give yourself permission.",
		"Talk to a friend - you're not alone.",
		"Try a 2-minute guided breathing exercise.",
	},
	{ // 1 – low
		"Take a deep breath and stretch for a few minutes.",
		"Step outside for 5 minutes of fresh air.",
		"Write down one thing you're grateful for today.",
	},
	{ // 2 – neutral
		"Drink a glass of water - you've earned it!",
		"A short walk can turn an okay day into a good one.",
		"Tidy one small corner; small wins add up.",
	},
	{ // 3 – great
		"Great momentum - bank it with an early night.",
		"Share the good mood: send someone a kind message.",
		"Note what worked today so you can repeat it.",
	},
}

// TipFor returns one tip from the bucket for the score. Scores outside
// 0-3 use the neutral bucket. intn supplies the index choice and is
// injectable for tests; the returned string is always non-empty.
func TipFor(score int, intn func(n int) int) string {
	if score < 0 || score > 3 {
		score = 2
	}
	bucket := tipBuckets[score]
	if intn == nil {
		return bucket[0]
	}
	return bucket[intn(len(bucket))]
}

// TipsFor exposes the candidate list for a score so callers (and
// tests) can verify membership.
func TipsFor(score int) []string {
	if score < 0 || score > 3 {
		score = 2
	}
	return tipBuckets[score]
}
