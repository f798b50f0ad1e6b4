package feed

import (
	"fmt"
	"strings"
)

// storyCount is the number of items the discovery prompt asks for. The
// provider usually honors it but the parser does not enforce it.
const storyCount = 6

// DiscoverPrompt returns the natural-language instruction for the discovery
// call. It requests a raw JSON array with a fixed field set; because the
// search tool rules out strict structured output, the instruction to skip
// markdown fencing is best-effort and the response still goes through
// fence stripping.
func DiscoverPrompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Find the top %d most significant news stories from the GCC "+
		"(Saudi Arabia, UAE, Qatar, Kuwait, Bahrain, Oman) from the last 7 days "+
		"focusing on these three specific sectors:\n", storyCount)
	sb.WriteString("1. IT (AI, cybersecurity, digital infrastructure).\n")
	sb.WriteString("2. Oil & Gas (energy transition, hydrogen, market updates).\n")
	sb.WriteString("3. Saudi Vision 2030 (major giga-projects like NEOM, social reforms, or economic diversification updates).\n\n")
	sb.WriteString("Return the result strictly as a JSON array of objects.\n")
	sb.WriteString("Each object MUST have:\n")
	sb.WriteString("- title: string\n")
	sb.WriteString("- summary: string (2-3 sentences)\n")
	sb.WriteString("- source: string\n")
	sb.WriteString("- date: string\n")
	sb.WriteString("- region: string\n")
	fmt.Fprintf(&sb, "- sector: string (must be exactly %q, %q, or %q)\n\n", SectorIT, SectorEnergy, SectorVision)
	sb.WriteString("Ensure the JSON is valid and not wrapped in markdown.")
	return sb.String()
}

// sectorEmoji maps a sector to the emoji the style guide calls for.
func sectorEmoji(sector string) string {
	switch sector {
	case SectorIT:
		return "\U0001F4BB" // laptop
	case SectorEnergy:
		return "\U0001F6E2️" // oil drum
	case SectorVision:
		return "\U0001F1F8\U0001F1E6" // Saudi flag
	default:
		return "\U0001F4C8" // chart increasing
	}
}

// ComposePrompt returns the drafting instruction for one article, embedding
// the fixed style directives for the post body.
func ComposePrompt(a Article) string {
	var sb strings.Builder
	sb.WriteString("You are a premier business consultant for the GCC region.\n")
	sb.WriteString("Write a high-engagement LinkedIn post based on this article:\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", a.Title)
	fmt.Fprintf(&sb, "Summary: %s\n", a.Summary)
	fmt.Fprintf(&sb, "Sector: %s\n", a.Sector)
	fmt.Fprintf(&sb, "Region: %s\n\n", a.Region)
	sb.WriteString("STYLE GUIDELINES:\n")
	sb.WriteString("1. Start with a powerful hook about GCC growth.\n")
	sb.WriteString("2. Explain the strategic importance of this update.\n")
	fmt.Fprintf(&sb, "3. Use sector-relevant emojis (for example %s for this article's sector).\n", sectorEmoji(a.Sector))
	sb.WriteString("4. End with a question to drive engagement.\n")
	sb.WriteString("5. Include 4 relevant hashtags.\n\n")
	sb.WriteString("Plain text only, no markdown bolding.")
	return sb.String()
}
