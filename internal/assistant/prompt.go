package assistant

import (
	"strings"

	"github.com/shopspring/decimal"
)

const emptyReply = "I'm sorry, I couldn't generate a response right now. Please try again!"

func (s *Service) money(d decimal.Decimal) string {
	return s.printer.Sprintf("$%.2f", d.InexactFloat64())
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func (s *Service) systemPrompt(tc TravelContext) string {
	var b strings.Builder
	b.WriteString("You are TravelGenie, an expert travel assistant. You help users plan trips with personalized recommendations.\n\n")
	b.WriteString("Current Trip Context:\n")
	s.printer.Fprintf(&b, "- Destination: %s\n", tc.Destination)
	s.printer.Fprintf(&b, "- Budget: %s (Spent: %s, Remaining: %s)\n",
		s.money(tc.Budget), s.money(tc.SpentAmount), s.money(tc.Remaining()))
	s.printer.Fprintf(&b, "- Trip Dates: %s to %s\n", tc.StartDate, tc.EndDate)
	s.printer.Fprintf(&b, "- Selected Day: %s\n", orNone(tc.SelectedDay))
	s.printer.Fprintf(&b, "- Existing Activities: %s\n\n", orNone(strings.Join(tc.ExistingActivities, ", ")))
	b.WriteString(`Guidelines:
- Provide specific, actionable travel recommendations
- Include estimated costs, timing, and locations when relevant
- Consider the user's remaining budget
- Suggest activities appropriate for the destination and dates
- Keep responses concise but informative (max 300 words)
- If asked about adding activities, provide specific suggestions with times and costs`)
	return b.String()
}

// fallback picks a canned reply by a keyword test on msg.
func (s *Service) fallback(msg string, tc TravelContext) string {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "recommend") || strings.Contains(lower, "suggest") {
		return s.printer.Sprintf(`Great question! Based on your trip to %s, here are some ideas:

Must-visit attractions:
- Historic city center tour (2-3 hours, $15-25)
- Local cultural museum (1-2 hours, $10-15)
- Scenic viewpoint for photos (1 hour, free)

Dining experiences:
- Traditional local restaurant ($20-35 per meal)
- Street food market tour ($10-15)
- Rooftop dining with views ($40-60)

Budget status: you have %s remaining from your %s budget.

Would you like help adding any of these to your itinerary?`,
			tc.Destination, s.money(tc.Remaining()), s.money(tc.Budget))
	}

	return s.printer.Sprintf(`I'm here to help with your %s adventure!

I can assist with:
- Activity recommendations for your interests
- Itinerary planning with timing and routes
- Budget optimization (%s left to spend)
- Transportation tips for getting around
- Local insights and hidden gems

What would you like to explore first?`, tc.Destination, s.money(tc.Remaining()))
}
