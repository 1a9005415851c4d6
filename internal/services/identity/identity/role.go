package identity

import apperrors "github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/errors"

// Role selects the partition an identity record is stored in.
type Role string

const (
	RoleAdministrator  Role = "administrator"
	RoleDeveloper      Role = "developer"
	RoleDesigner       Role = "designer"
	RoleProjectManager Role = "project-manager"
	RoleClient         Role = "client"
)

// ErrRoleInvalid indicates a role tag outside the known partition set.
var ErrRoleInvalid = apperrors.New(apperrors.CodeIdentityRoleInvalid, "role must be one of administrator, developer, designer, project-manager, client")

// Roles returns every partition role in resolution priority order.
// The order is part of the resolver contract: when two partitions hold the
// same email during a transient inconsistency window, the earlier partition
// wins deterministically. Do not reorder.
func Roles() []Role {
	return []Role{
		RoleAdministrator,
		RoleDeveloper,
		RoleDesigner,
		RoleProjectManager,
		RoleClient,
	}
}

// ParseRole validates a role tag. Unrecognized tags are rejected; callers
// that need lenient mapping (the legacy backfill) handle defaults themselves.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdministrator, RoleDeveloper, RoleDesigner, RoleProjectManager, RoleClient:
		return Role(s), nil
	}
	return "", ErrRoleInvalid
}

// Attribute keys for role-specific record fields. Shared profile fields
// (avatar, title, department, skills, and anything else the boundary passes
// through) are not enumerated; they carry across partitions untouched.
const (
	AttrTechStack             = "techStack"
	AttrGithubProfile         = "githubProfile"
	AttrBugsResolved          = "bugsResolved"
	AttrCodeQualityScore      = "codeQualityScore"
	AttrPullRequestsCompleted = "pullRequestsCompleted"
	AttrEffectiveness         = "effectiveness"

	AttrToolsUsed          = "toolsUsed"
	AttrFigmaProfile       = "figmaProfile"
	AttrClientApprovalRate = "clientApprovalRate"
	AttrDesignPortfolio    = "designPortfolio"
	AttrCompletedDesigns   = "completedDesigns"
	AttrDesignRevisions    = "designRevisions"

	AttrManagedProjects         = "managedProjects"
	AttrOnTimeDeliveryRate      = "onTimeDeliveryRate"
	AttrBlockerResolutionTime   = "blockerResolutionTime"
	AttrClientSatisfactionScore = "clientSatisfactionScore"
	AttrTeamFeedbackScore       = "teamFeedbackScore"
	AttrResourceUtilization     = "resourceUtilization"
	AttrProjectMetrics          = "projectMetrics"

	AttrIntegrations         = "integrations"
	AttrViewSettings         = "viewSettings"
	AttrNotificationsEnabled = "notificationsEnabled"
	AttrCounters             = "counters"

	AttrPhone       = "phone"
	AttrCompanyName = "companyName"
	AttrWebsite     = "website"
	AttrBillingInfo = "billingInfo"
)

// roleAttrKeys lists the attribute keys that only make sense inside one
// partition. On a role transition the source partition's keys are discarded
// unless the target role also understands them.
var roleAttrKeys = map[Role]map[string]struct{}{
	RoleDeveloper: setOf(
		AttrTechStack,
		AttrGithubProfile,
		AttrBugsResolved,
		AttrCodeQualityScore,
		AttrPullRequestsCompleted,
		AttrEffectiveness,
	),
	RoleDesigner: setOf(
		AttrToolsUsed,
		AttrFigmaProfile,
		AttrClientApprovalRate,
		AttrDesignPortfolio,
		AttrCompletedDesigns,
		AttrDesignRevisions,
		AttrEffectiveness,
	),
	RoleProjectManager: setOf(
		AttrManagedProjects,
		AttrOnTimeDeliveryRate,
		AttrBlockerResolutionTime,
		AttrClientSatisfactionScore,
		AttrTeamFeedbackScore,
		AttrResourceUtilization,
		AttrProjectMetrics,
	),
	RoleAdministrator: setOf(
		AttrIntegrations,
		AttrViewSettings,
		AttrNotificationsEnabled,
		AttrCounters,
	),
	RoleClient: setOf(
		AttrPhone,
		AttrCompanyName,
		AttrWebsite,
		AttrBillingInfo,
	),
}

// CarryAttrs computes the attribute map an identity keeps when moving from
// source to target. Source-partition-specific keys are dropped unless the
// target partition also defines them; every other key passes through.
func CarryAttrs(source, target Role, attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	sourceKeys := roleAttrKeys[source]
	targetKeys := roleAttrKeys[target]

	carried := make(map[string]any, len(attrs))
	for key, value := range attrs {
		if _, sourceOnly := sourceKeys[key]; sourceOnly {
			if _, meaningful := targetKeys[key]; !meaningful {
				continue
			}
		}
		carried[key] = value
	}
	if len(carried) == 0 {
		return nil
	}
	return carried
}

func setOf(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}
