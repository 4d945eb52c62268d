package skills

import (
	"github.com/Ramsey-B/sage/pkg/models"
)

// RenameInProfile renames every skill called oldName to newName, in the
// profile skill set and in each project, then collapses skills that now share
// a merge key. The first skill of a collision survives with the highest
// rating. It reports whether anything was renamed.
func RenameInProfile(p models.Profile, oldName, newName string) (models.Profile, bool) {
	out := p.Clone()
	changed := false

	for i := range out.Skills {
		if out.Skills[i].Name == oldName {
			out.Skills[i].Name = newName
			changed = true
		}
	}
	for i := range out.Projects {
		for j := range out.Projects[i].Skills {
			if out.Projects[i].Skills[j].Name == oldName {
				out.Projects[i].Skills[j].Name = newName
				changed = true
			}
		}
	}
	if !changed {
		return p, false
	}

	out.Skills = collapse(out.Skills)
	for i := range out.Projects {
		out.Projects[i].Skills = collapse(out.Projects[i].Skills)
	}

	// Project skills are views of profile skills: point each one at the
	// profile survivor so ids and ratings agree after the merge.
	for i := range out.Projects {
		for j, s := range out.Projects[i].Skills {
			survivor, ok := out.SkillByKey(s.Key())
			if !ok {
				out.Skills = append(out.Skills, s)
				continue
			}
			if s.Rating > survivor.Rating {
				survivor.Rating = s.Rating
				setSkill(&out, survivor)
			}
			out.Projects[i].Skills[j] = survivor
		}
	}
	for i := range out.Projects {
		for j, s := range out.Projects[i].Skills {
			if survivor, ok := out.SkillByKey(s.Key()); ok {
				out.Projects[i].Skills[j] = survivor
			}
		}
	}

	return out, true
}

// collapse keeps the first skill per merge key, raised to the highest rating
// of its duplicates.
func collapse(skills []models.Skill) []models.Skill {
	out := make([]models.Skill, 0, len(skills))
	pos := map[string]int{}
	for _, s := range skills {
		if i, ok := pos[s.Key()]; ok {
			out[i].Rating = max(out[i].Rating, s.Rating)
			continue
		}
		pos[s.Key()] = len(out)
		out = append(out, s)
	}
	return out
}

func setSkill(p *models.Profile, s models.Skill) {
	for i := range p.Skills {
		if p.Skills[i].Key() == s.Key() {
			p.Skills[i] = s
			return
		}
	}
}
