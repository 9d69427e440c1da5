package aclgate

import "github.com/samber/lo"

type nameSet map[string]struct{}

func (s nameSet) add(name string) {
	s[name] = struct{}{}
}

func (s nameSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// closure returns subject itself plus every container whose membership chain
// transitively includes subject. The visited set grows until a full pass over
// the index adds nothing, so mutually-referential containers terminate after
// at most one addition each.
func (idx MembershipIndex) closure(subject string) nameSet {
	visited := nameSet{subject: {}}
	for grew := true; grew; {
		grew = false
		for name, members := range idx {
			if visited.has(name) {
				continue
			}
			for _, member := range members {
				if visited.has(member) {
					visited.add(name)
					grew = true
					break
				}
			}
		}
	}
	return visited
}

// rolesFor expands the subject's group closure and collects every role that
// lists one of those groups (or the subject itself) as a member. Role
// membership is one level only; a role is never discovered via another role.
func (p *Policy) rolesFor(subject string) nameSet {
	groups := p.Groups.closure(subject)
	roles := nameSet{subject: {}}
	for role, members := range p.Roles {
		for group := range groups {
			if lo.Contains(members, group) {
				roles.add(role)
				break
			}
		}
	}
	return roles
}
