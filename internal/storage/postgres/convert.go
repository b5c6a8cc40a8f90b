package postgres

import "github.com/replaybrowser/replaybrowser/internal/model"

func identifiersToStrings(ids []model.Identifier) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func stringsToIdentifiers(ss []string) []model.Identifier {
	if len(ss) == 0 {
		return nil
	}
	out := make([]model.Identifier, len(ss))
	for i, s := range ss {
		out[i] = model.Identifier(s)
	}
	return out
}

func replayIDsToStrings(ids []model.ReplayID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func stringsToReplayIDs(ss []string) []model.ReplayID {
	if len(ss) == 0 {
		return nil
	}
	out := make([]model.ReplayID, len(ss))
	for i, s := range ss {
		out[i] = model.ReplayID(s)
	}
	return out
}
