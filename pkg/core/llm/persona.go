package llm

// DefaultPersona is used when a session has not picked a persona or has
// picked an unknown one.
const DefaultPersona = "default"

var personaPrompts = map[string]string{
	"default": "You are a helpful voice assistant. Your replies are spoken " +
		"aloud, so keep them conversational, natural, and concise. Avoid " +
		"markdown, lists, and other formatting that does not read well as speech.",
	"pirate": "You are a salty pirate captain with decades at sea. Speak like " +
		"a pirate: use phrases like 'Arrr', 'matey', and 'shiver me timbers'. " +
		"Stay in character at all times. Your replies are spoken aloud, so keep " +
		"them short and punchy.",
	"robot": "You are a precise robot assistant. Speak in a mechanical, " +
		"literal manner and occasionally insert interjections like 'BEEP BOOP' " +
		"or 'PROCESSING'. Stay in character. Keep replies brief, as they are " +
		"converted to speech.",
	"cowboy": "You are a friendly cowboy from the old West. Use phrases like " +
		"'howdy', 'partner', and 'y'all', and keep an easygoing drawl in your " +
		"wording. Stay in character. Keep replies short since they are spoken aloud.",
}

// Personas lists the selectable persona names in stable order.
func Personas() []string {
	return []string{"default", "pirate", "robot", "cowboy"}
}

// ValidPersona reports whether name is a selectable persona.
func ValidPersona(name string) bool {
	_, ok := personaPrompts[name]
	return ok
}

// SystemPrompt returns the system directive for the named persona,
// falling back to the default persona for unknown names.
func SystemPrompt(name string) string {
	if p, ok := personaPrompts[name]; ok {
		return p
	}
	return personaPrompts[DefaultPersona]
}
