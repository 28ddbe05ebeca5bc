package sqlinline

const QInsertVote = `--sql 5b0e8f3a-27c6-41d9-b4a8-9e1f6c2d7a53
insert into votes(id, meeting_id, role_id, nominee, voter_email, voter_name, voter_locale, voter_country, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::jsonb, lower($4::text), $5::text, nullif($6::text, ''), nullif($7::text, ''), now())
returning id, created_at;
`

const QSelectVoteByVoter = `--sql 1d6a3c88-f942-4e07-85b1-c47e9f0b2d36
select id
from votes
where meeting_id = $1::uuid
  and role_id = $2::text
  and voter_email = lower($3::text)
limit 1;
`

const QListVotesForMeeting = `--sql 8e4b1f60-5a2d-4c93-97e8-3b0d6f9a1c25
select role_id, nominee
from votes
where meeting_id = $1::uuid;
`
