package constants

// Tier is the privilege level of a session, derived from the account identity.
type Tier int

const (
	Anonymous Tier = iota
	Ordinary
	Admin
)

func (t Tier) String() string {
	switch t {
	case Ordinary:
		return "ordinary"
	case Admin:
		return "admin"
	default:
		return "anonymous"
	}
}

// VerbTiers maps each verb to the tiers allowed to issue it.
var VerbTiers = map[string][]Tier{
	Login:    {Anonymous, Ordinary, Admin},
	Help:     {Anonymous, Ordinary, Admin},
	Quit:     {Anonymous, Ordinary, Admin},
	Buy:      {Ordinary, Admin},
	Sell:     {Ordinary, Admin},
	List:     {Ordinary, Admin},
	Balance:  {Ordinary, Admin},
	Lookup:   {Ordinary, Admin},
	Deposit:  {Ordinary, Admin},
	Logout:   {Ordinary, Admin},
	Who:      {Admin},
	Shutdown: {Admin},
}

// IsVerb reports whether verb is part of the command set.
func IsVerb(verb string) bool {
	_, ok := VerbTiers[verb]
	return ok
}

// AllowedTier returns true if tier may issue verb.
func AllowedTier(verb string, tier Tier) bool {
	tiers, ok := VerbTiers[verb]
	if !ok {
		return false
	}
	for _, t := range tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Public reports whether verb needs no authentication.
func Public(verb string) bool {
	return AllowedTier(verb, Anonymous)
}
