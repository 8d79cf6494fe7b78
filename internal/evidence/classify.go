package evidence

import (
	"regexp"

	"github.com/sells-group/homesense/internal/model"
)

// tradeRule classifies a permit into a system. Masked phrases name another
// trade's equipment and are blanked before matching. A strong phrase matches
// even when other trades appear in the same permit. A weak phrase such as
// "mechanical" or "panel" matches only when no exclusion pattern appears
// anywhere in the text.
type tradeRule struct {
	system  string
	mask    []*regexp.Regexp
	strong  []*regexp.Regexp
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

func (r tradeRule) matches(text string) (bool, string) {
	if text == "" {
		return false, ""
	}
	masked := text
	for _, re := range r.mask {
		masked = re.ReplaceAllString(masked, " ")
	}
	for _, re := range r.strong {
		if m := re.FindString(masked); m != "" {
			return true, m
		}
	}
	var hit string
	for _, re := range r.include {
		if m := re.FindString(masked); m != "" {
			hit = m
			break
		}
	}
	if hit == "" {
		return false, ""
	}
	for _, re := range r.exclude {
		if re.MatchString(text) {
			return false, ""
		}
	}
	return true, hit
}

func res(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

var (
	poolWords  = `\b(pool|spa|hot tub)s?\b`
	solarWords = `\bsolar\b|photovoltaic|\bpv\b`
)

var tradeRules = []tradeRule{
	{
		system: model.SystemHVAC,
		mask:   res(`\b(pool|spa) (water )?heat(er|ing)?( pumps?)?\b`, `heat ?pump water heaters?`),
		strong: res(`\bhvac\b`, `\bair[- ]?condition`, `\ba/c\b`, `\bac (unit|system|change ?out|replace)`, `heat ?pump`,
			`\bfurnace`, `condens(er|ing unit)`, `air handler`, `\bahu\b`, `mini[- ]?split`),
		include: res(`\bmechanical\b`, `\bducts?(work)?\b`, `\bcompressor\b`),
		exclude: res(`hurricane`, `shutter`, `paver`, poolWords, `fence`, `screen (enclosure|room)`, `driveway`,
			`window`, `roof`, `shingle`, solarWords, `\bsign\b`, `irrigation`, `\bdock\b`, `seawall`, `water heater`),
	},
	{
		system:  model.SystemRoof,
		mask:    res(`solar shingles?`),
		strong:  res(`\bre-?roof`, `\broofing\b`, `shingle`, `\broof (replace\w*|tear ?off|overlay|recover)`, `\btear ?off\b`),
		include: res(`\broof`),
		exclude: res(solarWords, `roof[- ]?top unit`, `\brtu\b`, `roof drain`, `roof[- ]?mount`, `satellite`, `skylight`),
	},
	{
		system:  model.SystemWaterHeater,
		mask:    res(`solar (hot )?water heat\w*`, `\bpool (water )?heat\w*`),
		strong:  res(`water heater`, `tankless`, `hot water (heater|tank|system)`),
		include: res(`\bw/?h\b`),
		exclude: res(solarWords, `pool heat`, poolWords, `boiler`),
	},
	{
		system: model.SystemElectrical,
		strong: res(`\bservice (upgrade|change)`, `\b(replace|upgrade)( the)?( main| electrical)? panel\b`,
			`\b(main|electrical) panel (upgrade|replace\w*|change ?out)`, `\bre-?wir(e|ing)\b`),
		include: res(`electric`, `\bpanel\b`, `\b\d+ ?amps?\b`, `wiring`, `\bmeter\b`),
		exclude: res(poolWords, `\bpump\b`, solarWords, `generator`, `\bev\b`, `charg(er|ing)`, `\bsign\b`,
			`\bhvac\b`, `air condition`, `heat ?pump`, `water heater`, `low voltage`, `alarm`),
	},
	{
		system:  model.SystemPlumbing,
		strong:  res(`\bre-?pip(e|ing)`, `whole (house|home) (re)?plumb\w*`, `sewer (line|lateral) (replace\w*|repair)`),
		include: res(`plumb`, `sewer`, `water (line|service|main)`, `\bdrains?\b`, `fixtures?`),
		exclude: res(poolWords, `irrigation`, `sprinkler`, `lawn`, `water heater`, `tankless`, `roof drain`),
	},
	{
		system:  model.SystemExterior,
		include: res(`siding`, `gutter`, `stucco`, `soffit`, `fascia`),
		exclude: res(solarWords),
	},
	{
		system:  model.SystemPool,
		include: res(`\bpools?\b`, `swimming`),
		exclude: res(`pool table`, `car ?pool`),
	},
	{
		system:  model.SystemSpa,
		include: res(`\bspa\b`, `hot tub`, `jacuzzi`),
	},
	{
		system:  model.SystemSolar,
		include: res(solarWords),
		exclude: res(`solar (screen|shade|film|tube)`, `solar attic fan`),
	},
	{
		system:  model.SystemSprinkler,
		include: res(`irrigation`, `lawn sprinkler`, `sprinkler system`),
		exclude: res(`fire sprinkler`, `fire suppression`),
	},
	{
		system:  model.SystemGenerator,
		include: res(`generator`, `generac`),
	},
	{
		system:  model.SystemSeptic,
		include: res(`septic`, `drain ?field`, `leach field`),
	},
	{
		system:  model.SystemWell,
		include: res(`water well`, `\bwell (pump|drill|permit)`, `drill(ed)? well`),
		exclude: res(`as well`),
	},
	{
		system:  model.SystemEVCharger,
		include: res(`\bev charg`, `electric vehicle`, `car charg`, `charging station`, `tesla (wall|charg)`, `level 2 charg`),
	},
}

var rulesBySystem = func() map[string]tradeRule {
	m := make(map[string]tradeRule, len(tradeRules))
	for _, r := range tradeRules {
		m[r.system] = r
	}
	return m
}()

// Classify returns every system the permit matches, in rule order.
func Classify(p Permit) []string {
	text := p.Text()
	var systems []string
	for _, r := range tradeRules {
		if ok, _ := r.matches(text); ok {
			systems = append(systems, r.system)
		}
	}
	return systems
}

// Matches reports whether the permit matches system, and the affirmative
// phrase that matched.
func Matches(p Permit, system string) (bool, string) {
	r, ok := rulesBySystem[system]
	if !ok {
		return false, ""
	}
	return r.matches(p.Text())
}

// IsHVACPermit reports whether p is an HVAC permit.
func IsHVACPermit(p Permit) bool { ok, _ := Matches(p, model.SystemHVAC); return ok }

// IsRoofPermit reports whether p is a roofing permit.
func IsRoofPermit(p Permit) bool { ok, _ := Matches(p, model.SystemRoof); return ok }

// IsWaterHeaterPermit reports whether p is a water heater permit.
func IsWaterHeaterPermit(p Permit) bool { ok, _ := Matches(p, model.SystemWaterHeater); return ok }

// IsElectricalPermit reports whether p is an electrical-only permit.
func IsElectricalPermit(p Permit) bool { ok, _ := Matches(p, model.SystemElectrical); return ok }

// IsPlumbingPermit reports whether p is a plumbing permit.
func IsPlumbingPermit(p Permit) bool { ok, _ := Matches(p, model.SystemPlumbing); return ok }

// OptionalSystems lists systems a home may or may not have.
var OptionalSystems = []string{
	model.SystemPool, model.SystemSolar, model.SystemSprinkler, model.SystemSpa,
	model.SystemGenerator, model.SystemSeptic, model.SystemWell, model.SystemEVCharger,
}

// SystemsFromPermits returns the optional systems evidenced by permits,
// either through a tag naming the system or through classification.
func SystemsFromPermits(permits []Permit) map[string]bool {
	found := make(map[string]bool)
	for _, p := range permits {
		for _, tag := range p.Tags {
			t := foldText(tag)
			for _, s := range OptionalSystems {
				if t == s || t == foldText(systemLabel(s)) {
					found[s] = true
				}
			}
		}
		for _, s := range Classify(p) {
			for _, opt := range OptionalSystems {
				if s == opt {
					found[s] = true
				}
			}
		}
	}
	return found
}

func systemLabel(system string) string {
	switch system {
	case model.SystemEVCharger:
		return "ev charger"
	}
	return system
}
