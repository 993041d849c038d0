package game

// Category constants for the built-in questions.
const (
	CategoryFood   = "food"
	CategoryLove   = "love"
	CategoryDaily  = "daily"
	CategoryTravel = "travel"
	CategoryFun    = "fun"
)

// Bank is the static ordered set of balance questions, fixed at load time.
type Bank struct {
	questions []Question
	byID      map[string]Question
}

// NewBank builds a bank from the given questions. Passing none uses the
// built-in set.
func NewBank(questions ...Question) *Bank {
	if len(questions) == 0 {
		questions = builtinQuestions
	}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return &Bank{questions: questions, byID: byID}
}

// All returns the full ordered question set.
func (b *Bank) All() []Question {
	return b.questions
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// ByID looks up a question by id.
func (b *Bank) ByID(id string) (Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

var builtinQuestions = []Question{
	{ID: "bg-001", Category: CategoryFood, OptionA: "Cook dinner together every night", OptionB: "Eat out together every night"},
	{ID: "bg-002", Category: CategoryLove, OptionA: "Partner who texts constantly", OptionB: "Partner who calls once a day"},
	{ID: "bg-003", Category: CategoryTravel, OptionA: "Beach vacation every year", OptionB: "City trip every year"},
	{ID: "bg-004", Category: CategoryDaily, OptionA: "Wake up early together", OptionB: "Stay up late together"},
	{ID: "bg-005", Category: CategoryFun, OptionA: "Movie night at home", OptionB: "Night out dancing"},
	{ID: "bg-006", Category: CategoryFood, OptionA: "Only sweet snacks forever", OptionB: "Only salty snacks forever"},
	{ID: "bg-007", Category: CategoryLove, OptionA: "Grand public proposal", OptionB: "Private intimate proposal"},
	{ID: "bg-008", Category: CategoryTravel, OptionA: "Plan every detail of a trip", OptionB: "Book a flight and improvise"},
	{ID: "bg-009", Category: CategoryDaily, OptionA: "Share one bank account", OptionB: "Keep separate accounts"},
	{ID: "bg-010", Category: CategoryFun, OptionA: "Know your partner's every thought", OptionB: "Keep a little mystery"},
	{ID: "bg-011", Category: CategoryFood, OptionA: "Partner cooks but kitchen is a disaster", OptionB: "You cook and clean, partner does dishes"},
	{ID: "bg-012", Category: CategoryLove, OptionA: "Relive your first date once a month", OptionB: "A brand-new date idea every month"},
	{ID: "bg-013", Category: CategoryTravel, OptionA: "One month abroad together per year", OptionB: "One weekend away together per month"},
	{ID: "bg-014", Category: CategoryDaily, OptionA: "Live near your family", OptionB: "Live near your partner's family"},
	{ID: "bg-015", Category: CategoryFun, OptionA: "Couple costume every Halloween", OptionB: "Never wear a couple item again"},
	{ID: "bg-016", Category: CategoryFood, OptionA: "Coffee dates forever", OptionB: "Dessert dates forever"},
	{ID: "bg-017", Category: CategoryLove, OptionA: "Love letters every week", OptionB: "Surprise gifts every month"},
	{ID: "bg-018", Category: CategoryTravel, OptionA: "Road trip with no reservations", OptionB: "All-inclusive resort"},
	{ID: "bg-019", Category: CategoryDaily, OptionA: "Partner controls the thermostat", OptionB: "Partner controls the TV remote"},
	{ID: "bg-020", Category: CategoryFun, OptionA: "Win every argument but partner sulks", OptionB: "Lose every argument but partner laughs"},
	{ID: "bg-021", Category: CategoryFood, OptionA: "Breakfast in bed every Sunday", OptionB: "Midnight snacks every Friday"},
	{ID: "bg-022", Category: CategoryLove, OptionA: "Say 'I love you' first every time", OptionB: "Always hear it first"},
	{ID: "bg-023", Category: CategoryTravel, OptionA: "Camping under the stars", OptionB: "Five-star hotel room"},
	{ID: "bg-024", Category: CategoryDaily, OptionA: "Partner sings in the shower loudly", OptionB: "Partner narrates every TV show"},
	{ID: "bg-025", Category: CategoryFun, OptionA: "Matching tattoos", OptionB: "Matching rings only"},
	{ID: "bg-026", Category: CategoryFood, OptionA: "Partner picks every restaurant", OptionB: "You pick but partner always complains"},
	{ID: "bg-027", Category: CategoryLove, OptionA: "Re-watch your wedding day once", OptionB: "Preview your 50th anniversary once"},
	{ID: "bg-028", Category: CategoryTravel, OptionA: "Honeymoon in the mountains", OptionB: "Honeymoon on an island"},
	{ID: "bg-029", Category: CategoryDaily, OptionA: "Morning person partner", OptionB: "Night owl partner"},
	{ID: "bg-030", Category: CategoryFun, OptionA: "Game night with friends weekly", OptionB: "Quiet night just the two of you"},
}
