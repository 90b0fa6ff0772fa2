package domain

// DayActivity summarizes the reviews of one calendar day.
type DayActivity struct {
	Date           string  `json:"date"`
	CardsStudied   int     `json:"cardsStudied"`
	AverageQuality float64 `json:"averageQuality"`
}

// Stats is the activity summary of one user.
type Stats struct {
	TotalCards           int           `json:"totalCards"`
	TotalDecks           int           `json:"totalDecks"`
	CardsDueToday        int           `json:"cardsDueToday"`
	CardsStudiedToday    int           `json:"cardsStudiedToday"`
	CardsStudiedThisWeek int           `json:"cardsStudiedThisWeek"`
	CurrentStreak        int           `json:"currentStreak"`
	LongestStreak        int           `json:"longestStreak"`
	TotalReviews         int           `json:"totalReviews"`
	AverageRetention     int           `json:"averageRetention"`
	RecentActivity       []DayActivity `json:"recentActivity"`
}
