package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/stake-plus/allowlist-attest/src/attestd/identity"
)

// Discord caps both member endpoints at 1000 results per call.
const pageSize = 1000

// MemberAPI is the slice of *discordgo.Session the membership check needs.
type MemberAPI interface {
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildMembersSearch(guildID, query string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

// NewSession returns a REST-only bot session; the gateway is never opened.
// Listing guild members over REST still requires the privileged Server Members
// (GUILD_MEMBERS) intent to be enabled for the bot in the developer portal.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return s, nil
}

// Verifier checks that username#discriminator is a member of one guild.
type Verifier struct {
	api     MemberAPI
	guildID string
	search  bool
}

// NewVerifier with search enabled tries the indexed member search before
// listing the whole guild.
func NewVerifier(api MemberAPI, guildID string, search bool) *Verifier {
	return &Verifier{api: api, guildID: guildID, search: search}
}

func (v *Verifier) VerifyChat(ctx context.Context, username, discriminator string) identity.Outcome {
	outcome := v.lookup(ctx, username, discriminator)

	logger := zerolog.Ctx(ctx)
	if outcome.Status == identity.StatusProviderError {
		logger.Warn().
			Err(outcome.Err).
			Str("provider", "discord").
			Str("guild_id", v.guildID).
			Str("username", username).
			Msg("discord membership check failed, treating as unverified")
	} else {
		logger.Debug().
			Str("provider", "discord").
			Str("username", username).
			Stringer("outcome", outcome.Status).
			Msg("discord membership check finished")
	}
	return outcome
}

func (v *Verifier) lookup(ctx context.Context, username, discriminator string) identity.Outcome {
	if username == "" {
		return identity.NotFound()
	}

	if v.search {
		members, err := v.api.GuildMembersSearch(v.guildID, username, pageSize, discordgo.WithContext(ctx))
		switch {
		case err == nil && findMember(members, username, discriminator):
			return identity.Verified()
		case err == nil && len(members) < pageSize:
			return identity.NotFound()
		case ctx.Err() != nil:
			return identity.ProviderError(fmt.Errorf("discord member search: %w", ctx.Err()))
		case err != nil:
			zerolog.Ctx(ctx).Debug().Err(err).Msg("discord member search unavailable, scanning guild")
		}
		// a full page may have pushed the exact match out, so fall through to the scan
	}

	return v.scan(ctx, username, discriminator)
}

func (v *Verifier) scan(ctx context.Context, username, discriminator string) identity.Outcome {
	after := ""
	for {
		members, err := v.api.GuildMembers(v.guildID, after, pageSize, discordgo.WithContext(ctx))
		if err != nil {
			return identity.ProviderError(fmt.Errorf("discord list members: %w", err))
		}
		if findMember(members, username, discriminator) {
			return identity.Verified()
		}
		if len(members) < pageSize {
			return identity.NotFound()
		}
		last := members[len(members)-1]
		if last.User == nil || last.User.ID == after {
			return identity.NotFound()
		}
		after = last.User.ID
	}
}

func findMember(members []*discordgo.Member, username, discriminator string) bool {
	for _, m := range members {
		if m == nil || m.User == nil {
			continue
		}
		if m.User.Username == username && m.User.Discriminator == discriminator {
			return true
		}
	}
	return false
}
